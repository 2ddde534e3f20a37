// Package embed is the client for the fixed-dimension embedding service.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/caselakehq/caselake/internal/metrics"
)

const (
	defaultDim           = 1024
	defaultBatchSize     = 25
	defaultTimeout       = 30 * time.Second
	defaultTruncateChars = 4000
	defaultMaxElapsed    = 2 * time.Minute
)

// Config wires a Client.
type Config struct {
	Logger  *slog.Logger
	BaseURL string
	Model   string

	// Optional with defaults.
	Dim           int
	BatchSize     int
	Timeout       time.Duration
	TruncateChars int
	MaxElapsed    time.Duration
	HTTPClient    *http.Client
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if c.Dim == 0 {
		c.Dim = defaultDim
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.BatchSize < 1 {
		return errors.New("batch size must be >= 1")
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.TruncateChars == 0 {
		c.TruncateChars = defaultTruncateChars
	}
	if c.MaxElapsed == 0 {
		c.MaxElapsed = defaultMaxElapsed
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return nil
}

// Client requests vectors in batches with bounded exponential-backoff
// retries. Response order matches request order.
type Client struct {
	log *slog.Logger
	cfg *Config
}

// New validates cfg and returns a Client.
func New(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	return &Client{log: cfg.Logger, cfg: cfg}, nil
}

type embedRequest struct {
	Model  string   `json:"model,omitempty"`
	Inputs []string `json:"inputs"`
}

type embedResponse struct {
	Vectors [][]float32 `json:"vectors"`
	Error   string      `json:"error,omitempty"`
}

// Embed returns one vector per input text, in order. Inputs are truncated
// to the configured character cap before sending; requests go out in
// batches of the configured size.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	truncated := make([]string, len(texts))
	for i, t := range texts {
		if len(t) > c.cfg.TruncateChars {
			t = t[:c.cfg.TruncateChars]
		}
		truncated[i] = t
	}

	out := make([][]float32, 0, len(truncated))
	for start := 0; start < len(truncated); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(truncated))
		vectors, err := c.embedBatch(ctx, truncated[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedOne is the single-text convenience used for the case-level
// embedding.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.EmbeddingCallDuration.Observe(time.Since(start).Seconds()) }()

	operation := func() ([][]float32, error) {
		vectors, err := c.post(ctx, batch)
		if err != nil {
			c.log.Warn("embedding request failed, backing off", "batch", len(batch), "error", err)
			return nil, err
		}
		return vectors, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.cfg.MaxElapsed),
	)
}

func (c *Client) post(ctx context.Context, batch []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.cfg.Model, Inputs: batch})
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("marshal embed request: %w", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build embed request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("embed request failed: status %d: %s", resp.StatusCode, msg)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("embedding service error: %s", out.Error)
	}
	if len(out.Vectors) != len(batch) {
		return nil, backoff.Permanent(fmt.Errorf("embedding count mismatch: sent %d, got %d", len(batch), len(out.Vectors)))
	}
	for i, v := range out.Vectors {
		if len(v) != c.cfg.Dim {
			return nil, backoff.Permanent(fmt.Errorf("embedding %d has dim %d, want %d", i, len(v), c.cfg.Dim))
		}
	}
	return out.Vectors, nil
}
