// Package ingest is the orchestrator: it walks the PDF corpus, joins files
// against the metadata sheet, and runs the per-case pipeline on a bounded
// worker pool.
package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/caselakehq/caselake/internal/metadata"
	"github.com/caselakehq/caselake/internal/model"
	"github.com/caselakehq/caselake/internal/rag"
	"github.com/caselakehq/caselake/internal/store"
)

const defaultWorkers = 4

// CaseExtractor produces structured case fields from opinion text.
type CaseExtractor interface {
	Extract(ctx context.Context, fullText string) (*model.ExtractedCase, error)
}

// PageExtractor turns a PDF on disk into ordered page texts.
type PageExtractor interface {
	Pages(path string) ([]string, error)
}

// Config wires the engine.
type Config struct {
	Logger    *slog.Logger
	Clock     clockwork.Clock
	Store     *store.Store
	Sheet     *metadata.Sheet
	PDF       PageExtractor
	Extractor CaseExtractor

	// Optional.
	Embedder        store.Embedder
	Workers         int
	Limit           int
	EnableRAG       bool
	ChunkEmbeddings rag.ChunkEmbeddingMode
	PhraseFilter    rag.PhraseFilterMode
	PhraseLists     rag.PhraseLists
	ChunkOptions    rag.ChunkerOptions
	WordBatch       int
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Store == nil {
		return errors.New("store is required")
	}
	if c.Sheet == nil {
		return errors.New("metadata sheet is required")
	}
	if c.PDF == nil {
		return errors.New("pdf extractor is required")
	}
	if c.Extractor == nil {
		return errors.New("case extractor is required")
	}
	if c.Workers == 0 {
		c.Workers = defaultWorkers
	}
	if c.Workers < 1 {
		return errors.New("workers must be >= 1")
	}
	if c.ChunkEmbeddings == "" {
		c.ChunkEmbeddings = rag.EmbedAll
	}
	if c.PhraseFilter == "" {
		c.PhraseFilter = rag.PhraseFilterStrict
	}
	if c.WordBatch < 0 {
		return errors.New("word batch must be >= 0")
	}
	if c.EnableRAG && c.ChunkEmbeddings != rag.EmbedNone && c.Embedder == nil {
		return errors.New("embedder is required when chunk embeddings are enabled")
	}
	return nil
}
