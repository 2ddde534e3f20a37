// Command caselake ingests appellate-opinion PDFs and a metadata sheet into
// the relational store, with RAG indexing and vector embeddings.
//
// Single file:
//
//	caselake --pdf case.pdf --csv metadata.csv --row 21
//
// Batch:
//
//	caselake --batch --pdf-dir downloads/opinions --csv metadata.csv --workers 8
//
// Verify a committed case:
//
//	caselake --verify --case-id 42
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/caselakehq/caselake/internal/embed"
	"github.com/caselakehq/caselake/internal/extract"
	"github.com/caselakehq/caselake/internal/ingest"
	"github.com/caselakehq/caselake/internal/metadata"
	"github.com/caselakehq/caselake/internal/metrics"
	"github.com/caselakehq/caselake/internal/pdfx"
	"github.com/caselakehq/caselake/internal/rag"
	"github.com/caselakehq/caselake/internal/store"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, errCasesFailed) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// errCasesFailed signals a clean run with failed cases: summary already
// printed, exit non-zero without an extra message.
var errCasesFailed = errors.New("one or more cases failed")

type cliConfig struct {
	ShowVersion bool
	Verbose     bool
	MetricsAddr string

	PDF        string
	CSV        string
	Row        int
	Batch      bool
	PDFDir     string
	Limit      int
	Workers    int
	Sequential bool

	NoRAG           bool
	ChunkEmbeddings string
	PhraseFilter    string

	Verify bool
	CaseID int64

	DatabaseURL string

	LLMProvider   string
	LLMBaseURL    string
	LLMModel      string
	LLMTimeoutSec int

	EmbeddingBaseURL string
	EmbeddingModel   string
	EmbeddingDim     int
	EmbeddingBatch   int
	EmbedTruncChars  int
	WordBatch        int
}

func loadConfig() (*cliConfig, error) {
	// .env is optional; real environment always wins.
	_ = godotenv.Load()

	cfg := &cliConfig{}
	flag.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")
	flag.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug logging")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "prometheus listen address (empty disables)")

	flag.StringVar(&cfg.PDF, "pdf", "", "single PDF file to ingest")
	flag.StringVar(&cfg.CSV, "csv", "", "metadata CSV sheet")
	flag.IntVar(&cfg.Row, "row", 0, "metadata sheet row for single-file mode (1-indexed)")

	flag.BoolVar(&cfg.Batch, "batch", false, "batch mode over --pdf-dir")
	flag.StringVar(&cfg.PDFDir, "pdf-dir", "", "directory of PDFs for batch mode")
	flag.IntVar(&cfg.Limit, "limit", 0, "max files to process in batch mode")
	flag.IntVar(&cfg.Workers, "workers", getenvInt("WORKERS", 4), "parallel workers")
	flag.BoolVar(&cfg.Sequential, "sequential", false, "force a single worker")

	flag.BoolVar(&cfg.NoRAG, "no-rag", false, "skip RAG indexing (chunks, sentences, words, phrases, embeddings)")
	flag.StringVar(&cfg.ChunkEmbeddings, "chunk-embeddings", "all", "chunk embedding mode: all|important|none")
	flag.StringVar(&cfg.PhraseFilter, "phrase-filter", "strict", "phrase filter mode: strict|relaxed")

	flag.BoolVar(&cfg.Verify, "verify", false, "verify a committed case and exit")
	flag.Int64Var(&cfg.CaseID, "case-id", 0, "case id for --verify")
	flag.Parse()

	cfg.DatabaseURL = getenv("DATABASE_URL", "")

	cfg.LLMProvider = getenv("LLM_PROVIDER", "http")
	cfg.LLMBaseURL = getenv("LLM_BASE_URL", "http://localhost:11434")
	cfg.LLMModel = getenv("LLM_MODEL", "llama3.1:8b")
	var err error
	if cfg.LLMTimeoutSec, err = getenvIntErr("LLM_TIMEOUT_SEC", 180); err != nil {
		return nil, err
	}

	cfg.EmbeddingBaseURL = getenv("EMBEDDING_BASE_URL", "http://localhost:11434/api")
	cfg.EmbeddingModel = getenv("EMBEDDING_MODEL", "mxbai-embed-large")
	if cfg.EmbeddingDim, err = getenvIntErr("EMBEDDING_DIM", 1024); err != nil {
		return nil, err
	}
	if cfg.EmbeddingBatch, err = getenvIntErr("EMBEDDING_BATCH", 25); err != nil {
		return nil, err
	}
	if cfg.EmbedTruncChars, err = getenvIntErr("EMBED_TRUNC_CHARS", 4000); err != nil {
		return nil, err
	}
	if cfg.WordBatch, err = getenvIntErr("WORD_BATCH", 500); err != nil {
		return nil, err
	}

	if cfg.Sequential {
		cfg.Workers = 1
	}
	return cfg, nil
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.ShowVersion {
		fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
		return nil
	}

	log := newLogger(cfg.Verbose)

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		go func() {
			listener, err := net.Listen("tcp", cfg.MetricsAddr)
			if err != nil {
				log.Error("failed to start prometheus metrics listener", "error", err)
				return
			}
			log.Info("prometheus metrics server listening", "address", listener.Addr().String())
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.Serve(listener, mux); err != nil {
				log.Error("prometheus metrics server stopped", "error", err)
			}
		}()
	}

	st, err := store.Connect(ctx, log, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.Verify {
		if cfg.CaseID == 0 {
			return errors.New("--verify requires --case-id")
		}
		report, err := st.Verify(ctx, cfg.CaseID)
		if err != nil {
			return err
		}
		fmt.Print(report.Summary())
		if !report.OK() {
			return errCasesFailed
		}
		return nil
	}

	if err := st.EnsureSchema(ctx, log); err != nil {
		return err
	}

	if cfg.CSV == "" {
		return errors.New("--csv is required")
	}
	sheet, err := metadata.Load(log, cfg.CSV)
	if err != nil {
		return err
	}

	engine, err := buildEngine(log, cfg, st, sheet)
	if err != nil {
		return err
	}

	switch {
	case cfg.Batch:
		if cfg.PDFDir == "" {
			return errors.New("--batch requires --pdf-dir")
		}
		summary, err := engine.Run(ctx, cfg.PDFDir)
		if err != nil {
			return err
		}
		printSummary(summary)
		if summary.Failedness() {
			return errCasesFailed
		}
		return nil

	case cfg.PDF != "":
		meta, ok := sheet.Lookup(cfg.PDF)
		if !ok && cfg.Row > 0 {
			meta, ok = sheet.Row(cfg.Row)
		}
		if !ok {
			return fmt.Errorf("no metadata row matches %s", cfg.PDF)
		}
		outcome := engine.ProcessOne(ctx, cfg.PDF, meta)
		fmt.Printf("%s: %s\n", outcome.File, outcome.Status)
		if outcome.Status == ingest.StatusFailed {
			fmt.Printf("  kind=%s error=%v\n", outcome.Kind, outcome.Err)
			return errCasesFailed
		}
		fmt.Printf("  case_id=%d\n", outcome.CaseID)
		return nil

	default:
		return errors.New("nothing to do: pass --pdf, --batch, or --verify")
	}
}

func buildEngine(log *slog.Logger, cfg *cliConfig, st *store.Store, sheet *metadata.Sheet) (*ingest.Engine, error) {
	chunkMode, ok := rag.ParseChunkEmbeddingMode(cfg.ChunkEmbeddings)
	if !ok {
		return nil, fmt.Errorf("invalid --chunk-embeddings %q", cfg.ChunkEmbeddings)
	}
	phraseMode, ok := rag.ParsePhraseFilterMode(cfg.PhraseFilter)
	if !ok {
		return nil, fmt.Errorf("invalid --phrase-filter %q", cfg.PhraseFilter)
	}

	var llmClient extract.CompletionClient
	switch cfg.LLMProvider {
	case "anthropic":
		llmClient = extract.NewAnthropicClient(log, cfg.LLMModel, 8192)
	case "http":
		llmClient = extract.NewHTTPClient(log, cfg.LLMBaseURL, cfg.LLMModel, time.Duration(cfg.LLMTimeoutSec)*time.Second)
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER %q (want http or anthropic)", cfg.LLMProvider)
	}

	extractor, err := extract.New(&extract.Config{
		Logger: log,
		Client: llmClient,
		Model:  cfg.LLMModel,
	})
	if err != nil {
		return nil, err
	}

	embedder, err := embed.New(&embed.Config{
		Logger:        log,
		BaseURL:       cfg.EmbeddingBaseURL,
		Model:         cfg.EmbeddingModel,
		Dim:           cfg.EmbeddingDim,
		BatchSize:     cfg.EmbeddingBatch,
		TruncateChars: cfg.EmbedTruncChars,
	})
	if err != nil {
		return nil, err
	}

	return ingest.New(&ingest.Config{
		Logger:          log,
		Clock:           clockwork.NewRealClock(),
		Store:           st,
		Sheet:           sheet,
		PDF:             pdfx.New(),
		Extractor:       extractor,
		Embedder:        embedder,
		Workers:         cfg.Workers,
		Limit:           cfg.Limit,
		EnableRAG:       !cfg.NoRAG,
		ChunkEmbeddings: chunkMode,
		PhraseFilter:    phraseMode,
		WordBatch:       cfg.WordBatch,
	})
}

func printSummary(summary *ingest.Summary) {
	fmt.Println("\nBatch ingestion complete")
	fmt.Printf("  attempted:           %d\n", summary.Attempted)
	fmt.Printf("  succeeded:           %d\n", summary.Succeeded)
	fmt.Printf("  updated:             %d\n", summary.Updated)
	fmt.Printf("  skipped_no_metadata: %d\n", summary.SkippedNoMetadata)
	fmt.Printf("  failed:              %d\n", summary.Failed)
	for _, out := range summary.Outcomes {
		switch out.Status {
		case ingest.StatusFailed:
			fmt.Printf("  [FAIL] %s (%s): %v\n", out.File, out.Kind, out.Err)
		case ingest.StatusSkipped:
			fmt.Printf("  [SKIP] %s\n", out.File)
		default:
			fmt.Printf("  [OK]   %s case_id=%d\n", out.File, out.CaseID)
		}
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v, err := getenvIntErr(key, def)
	if err != nil {
		return def
	}
	return v
}

func getenvIntErr(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return i, nil
}
