package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/alitto/pond/v2"

	"github.com/caselakehq/caselake/internal/assemble"
	"github.com/caselakehq/caselake/internal/metrics"
	"github.com/caselakehq/caselake/internal/model"
	"github.com/caselakehq/caselake/internal/rag"
	"github.com/caselakehq/caselake/internal/store"
)

// Status is the terminal state of one file.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusUpdated   Status = "updated"
	StatusSkipped   Status = "skipped_no_metadata"
	StatusFailed    Status = "failed"
)

// Outcome is the per-file result line.
type Outcome struct {
	File       string
	CaseFileID string
	Status     Status
	Kind       Kind
	CaseID     int64
	Err        error
}

// Summary aggregates a run.
type Summary struct {
	Attempted         int
	Succeeded         int
	Updated           int
	SkippedNoMetadata int
	Failed            int
	Outcomes          []Outcome
}

// Failedness reports whether the run should exit non-zero.
func (s *Summary) Failedness() bool { return s.Failed > 0 }

// Engine runs the bounded-parallel ingestion pipeline.
type Engine struct {
	log *slog.Logger
	cfg *Config

	ragProcessor *rag.Processor

	// Inserters carry a per-worker dimension cache; the pool hands each
	// in-flight case its own instance.
	inserters sync.Pool
}

// New validates cfg and builds the engine.
func New(cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	e := &Engine{log: cfg.Logger, cfg: cfg}
	if cfg.EnableRAG {
		e.ragProcessor = rag.NewProcessor(cfg.ChunkOptions, cfg.PhraseFilter, cfg.PhraseLists)
	}
	e.inserters.New = func() any {
		ins, err := store.NewInserter(&store.InserterConfig{
			Logger:          cfg.Logger,
			Store:           cfg.Store,
			Embedder:        cfg.Embedder,
			ChunkEmbeddings: cfg.ChunkEmbeddings,
			WordBatch:       cfg.WordBatch,
		})
		if err != nil {
			// Config was validated above; an inserter config derived from
			// it cannot fail.
			panic(err)
		}
		return ins
	}
	return e, nil
}

// Run walks pdfDir, joins each PDF against the metadata sheet, and
// processes matches on the worker pool. Cancellation stops dispatch;
// in-flight cases finish or roll back.
func (e *Engine) Run(ctx context.Context, pdfDir string) (*Summary, error) {
	files, err := listPDFs(pdfDir)
	if err != nil {
		return nil, fmt.Errorf("walk pdf directory: %w", err)
	}
	if e.cfg.Limit > 0 && len(files) > e.cfg.Limit {
		files = files[:e.cfg.Limit]
	}
	e.log.Info("starting batch ingestion",
		"pdfDir", pdfDir,
		"files", len(files),
		"workers", e.cfg.Workers,
		"rag", e.cfg.EnableRAG,
		"chunkEmbeddings", string(e.cfg.ChunkEmbeddings),
		"phraseFilter", string(e.cfg.PhraseFilter),
	)

	pool := pond.NewResultPool[Outcome](e.cfg.Workers)
	defer pool.StopAndWait()
	group := pool.NewGroup()

	dispatched := 0
	summary := &Summary{}
	for _, path := range files {
		if ctx.Err() != nil {
			e.log.Warn("cancellation requested, stopping dispatch", "remaining", len(files)-dispatched)
			break
		}
		path := path
		meta, ok := e.cfg.Sheet.Lookup(filepath.Base(path))
		if !ok {
			metrics.CasesSkipped.Inc()
			summary.Outcomes = append(summary.Outcomes, Outcome{
				File:   filepath.Base(path),
				Status: StatusSkipped,
			})
			summary.SkippedNoMetadata++
			e.log.Warn("no metadata row for pdf, skipping", "file", filepath.Base(path))
			continue
		}
		dispatched++
		group.SubmitErr(func() (Outcome, error) {
			return e.processFile(ctx, path, meta), nil
		})
	}

	results, err := group.Wait()
	if err != nil {
		// Tasks never return errors; outcomes carry their own failures.
		return nil, fmt.Errorf("worker pool: %w", err)
	}

	for _, out := range results {
		summary.Outcomes = append(summary.Outcomes, out)
		summary.Attempted++
		switch out.Status {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusUpdated:
			summary.Succeeded++
			summary.Updated++
		case StatusFailed:
			summary.Failed++
		}
	}
	sort.Slice(summary.Outcomes, func(i, j int) bool {
		return summary.Outcomes[i].File < summary.Outcomes[j].File
	})

	e.log.Info("batch ingestion complete",
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"updated", summary.Updated,
		"skippedNoMetadata", summary.SkippedNoMetadata,
		"failed", summary.Failed,
	)
	return summary, nil
}

// ProcessOne runs the pipeline for a single already-joined file.
func (e *Engine) ProcessOne(ctx context.Context, pdfPath string, meta model.Metadata) Outcome {
	return e.processFile(ctx, pdfPath, meta)
}

func (e *Engine) processFile(ctx context.Context, pdfPath string, meta model.Metadata) Outcome {
	metrics.CasesAttempted.Inc()
	metrics.WorkersRunning.Inc()
	defer metrics.WorkersRunning.Dec()

	start := e.cfg.Clock.Now()
	out := Outcome{File: filepath.Base(pdfPath), CaseFileID: meta.CaseNumber}

	caseRec, doc, err := e.buildCase(ctx, pdfPath, meta)
	if err == nil {
		ins := e.inserters.Get().(*store.Inserter)
		var res store.Result
		res, err = ins.InsertCase(ctx, caseRec, doc)
		e.inserters.Put(ins)
		if err == nil {
			out.CaseID = res.CaseID
			out.Status = StatusSucceeded
			if res.Updated {
				out.Status = StatusUpdated
				metrics.CasesUpdated.Inc()
			}
			metrics.CasesSucceeded.Inc()
			metrics.CaseDuration.Observe(e.cfg.Clock.Since(start).Seconds())
			e.log.Info("case committed",
				"file", out.File,
				"caseFileID", out.CaseFileID,
				"caseID", res.CaseID,
				"updated", res.Updated,
				"chunks", res.Chunks,
				"sentences", res.Sentences,
				"words", res.Words,
				"phrases", res.Phrases,
				"embeddings", res.Embeddings,
				"duration", e.cfg.Clock.Since(start),
			)
			return out
		}
	}

	out.Status = StatusFailed
	out.Err = err
	out.Kind = KindOf(err)
	metrics.CasesFailed.WithLabelValues(string(out.Kind)).Inc()
	e.log.Error("case failed",
		"file", out.File,
		"caseFileID", out.CaseFileID,
		"kind", string(out.Kind),
		"error", err,
	)
	return out
}

// buildCase runs the read-extract-assemble-segment half of the pipeline.
func (e *Engine) buildCase(ctx context.Context, pdfPath string, meta model.Metadata) (*model.ExtractedCase, *rag.Document, error) {
	pages, err := e.cfg.PDF.Pages(pdfPath)
	if err != nil {
		return nil, nil, classify(KindInput, err)
	}
	fullText := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if len(fullText) < 100 {
		return nil, nil, classify(KindInput, fmt.Errorf("pdf %s yielded insufficient text (%d chars)", filepath.Base(pdfPath), len(fullText)))
	}

	llmStart := e.cfg.Clock.Now()
	llmCase, err := e.cfg.Extractor.Extract(ctx, fullText)
	metrics.LLMCallDuration.Observe(e.cfg.Clock.Since(llmStart).Seconds())
	if err != nil {
		return nil, nil, classify(KindExtraction, err)
	}

	caseRec := assemble.Merge(meta, pages, llmCase, filepath.Base(pdfPath), pdfPath)

	var doc *rag.Document
	if e.ragProcessor != nil {
		doc = e.ragProcessor.Process(pages)
	}
	return caseRec, doc, nil
}

func listPDFs(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
