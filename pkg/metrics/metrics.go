package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline stage duration in seconds, per stage and outcome.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Ingestion pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~200s
		},
		[]string{"stage", "status"},
	)

	// OCR extraction call latency in milliseconds.
	OCRCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ocr_call_latency_ms",
			Help:    "OCR service call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"status"},
	)

	// Hybrid search latency in seconds.
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Hybrid search request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"status"},
	)

	// Documents that finished the pipeline, by terminal status.
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_processed_total",
			Help: "Total number of documents that finished the ingestion pipeline",
		},
		[]string{"status"}, // status: ready, error
	)

	// Mailbox messages discovered per scheduler tick.
	MailboxMessagesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailbox_messages_discovered_total",
			Help: "Total number of new mailbox messages discovered by the scheduler",
		},
	)

	// Per-page vector writes.
	PagesIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pages_indexed_total",
			Help: "Total number of page vectors written",
		},
	)

	// Slow database queries.
	SlowQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_queries_total",
			Help: "Total number of slow database queries",
		},
	)
)

// ObserveStageDuration records a pipeline stage duration.
func ObserveStageDuration(stage, status string, duration time.Duration) {
	StageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// ObserveOCRCall records an OCR call latency.
func ObserveOCRCall(status string, duration time.Duration) {
	OCRCallLatency.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

// ObserveSearch records a search request duration.
func ObserveSearch(status string, duration time.Duration) {
	SearchDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// IncrementDocumentsProcessed increments the processed-document counter.
func IncrementDocumentsProcessed(status string) {
	DocumentsProcessed.WithLabelValues(status).Inc()
}

// IncrementSlowQuery counts a slow query.
func IncrementSlowQuery(duration time.Duration) {
	SlowQueries.Inc()
}
