package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "caselake_ingest_build_info",
		Help: "Build information of the ingestion engine.",
	}, []string{"version", "commit", "date"})

	CasesAttempted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselake_ingest_cases_attempted_total", Help: "Cases dispatched to workers.",
	})
	CasesSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselake_ingest_cases_succeeded_total", Help: "Cases fully committed.",
	})
	CasesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caselake_ingest_cases_failed_total", Help: "Cases that failed, by error kind.",
	}, []string{"kind"})
	CasesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselake_ingest_cases_skipped_no_metadata_total", Help: "PDFs skipped for lack of a metadata row.",
	})
	CasesUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselake_ingest_cases_updated_total", Help: "Re-ingested cases that hit the conflict-update path.",
	})

	WorkersRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "caselake_ingest_workers_running", Help: "Workers currently processing a case.",
	})

	LLMCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "caselake_ingest_llm_call_seconds",
		Help:    "Wall time of LLM extraction calls.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	EmbeddingCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "caselake_ingest_embedding_call_seconds",
		Help:    "Wall time of embedding batch calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
	CaseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "caselake_ingest_case_seconds",
		Help:    "Wall time of the full per-case pipeline.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)
