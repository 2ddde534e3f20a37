package ingest

import (
	"errors"
	"fmt"

	"github.com/caselakehq/caselake/internal/store"
)

// Kind classifies a per-case failure for the outcome log and metrics.
type Kind string

const (
	KindInput      Kind = "input"
	KindExtraction Kind = "extraction"
	KindIndexing   Kind = "indexing"
	KindDatabase   Kind = "database"
)

// kindError tags an error with its classification while preserving the
// chain for errors.Is/As.
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return fmt.Sprintf("%s: %v", e.kind, e.err) }
func (e *kindError) Unwrap() error { return e.err }

func classify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// KindOf extracts the classification from a per-case error, defaulting to
// database for untagged errors surfaced from the transaction.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	if errors.Is(err, store.ErrIndexing) {
		return KindIndexing
	}
	return KindDatabase
}
