// Package extract turns opinion text into a structured case record via an
// LLM constrained to a fixed JSON schema.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/caselakehq/caselake/internal/model"
)

const (
	// defaultMaxChars caps the text window sent to the model. Longer
	// documents are sampled 40% head / 35% middle / 25% tail.
	defaultMaxChars = 25000

	headFraction = 0.40
	tailFraction = 0.25
)

// Config wires an Extractor.
type Config struct {
	Logger *slog.Logger
	Client CompletionClient
	Clock  clockwork.Clock

	// Optional with defaults.
	Model    string
	MaxChars int
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Client == nil {
		return errors.New("completion client is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.MaxChars == 0 {
		c.MaxChars = defaultMaxChars
	}
	if c.MaxChars < 1000 {
		return errors.New("max chars must be >= 1000")
	}
	return nil
}

// Extractor runs the extraction prompt and parses the result.
type Extractor struct {
	log *slog.Logger
	cfg *Config
}

// New validates cfg and returns an Extractor.
func New(cfg *Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	return &Extractor{log: cfg.Logger, cfg: cfg}, nil
}

// Extract sends the (possibly truncated) case text to the LLM and returns
// the parsed case fields. On a parse failure it retries once with a
// stricter reminder; a second failure is terminal for the case.
func (e *Extractor) Extract(ctx context.Context, fullText string) (*model.ExtractedCase, error) {
	text := Truncate(fullText, e.cfg.MaxChars)
	prompt := extractionPromptHeader + text + extractionPromptBody

	response, err := e.cfg.Client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm extraction: %w", err)
	}

	wc, parseErr := parseResponse(response)
	if parseErr != nil {
		e.log.Warn("extraction JSON unparseable, retrying with reminder", "error", parseErr)
		response, err = e.cfg.Client.Complete(ctx, systemPrompt, prompt+retryReminder)
		if err != nil {
			return nil, fmt.Errorf("llm extraction retry: %w", err)
		}
		wc, parseErr = parseResponse(response)
		if parseErr != nil {
			return nil, fmt.Errorf("llm extraction unparseable after retry: %w", parseErr)
		}
	}

	c := buildCase(wc)
	c.ExtractionTimestamp = e.cfg.Clock.Now().UTC()
	c.LLMModel = e.cfg.Model
	return c, nil
}

// Truncate applies the head/middle/tail sampling policy: text at or under
// maxChars passes through unchanged; longer text keeps the first 40%, a 35%
// sample around the document center, and the last 25% of the budget.
func Truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	headSize := int(float64(maxChars) * headFraction)
	tailSize := int(float64(maxChars) * tailFraction)
	middleSize := maxChars - headSize - tailSize

	head := text[:headSize]
	tail := text[len(text)-tailSize:]

	middleStart := len(text)/2 - middleSize/2
	middle := text[middleStart : middleStart+middleSize]

	var b strings.Builder
	b.Grow(maxChars + 64)
	b.WriteString(head)
	b.WriteString("\n\n[...document continues...]\n\n")
	b.WriteString(middle)
	b.WriteString("\n\n[...document continues...]\n\n")
	b.WriteString(tail)
	return b.String()
}
