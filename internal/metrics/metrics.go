// Package metrics provides Prometheus collectors for ingestion, query and
// index health. All collectors are registered on the default registry under
// the "docuquery" namespace and served by Handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docuquery"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeEmpty   = "empty"
)

var (
	// IngestDocumentsTotal counts finished ingestions.
	// Labels: status (processed, failed)
	IngestDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total number of ingested documents by final status",
		},
		[]string{"status"},
	)

	// IngestChunksTotal counts chunks written by successful ingestions.
	IngestChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total number of chunks indexed",
		},
	)

	// EmbeddingRequestsTotal counts embedding provider calls.
	// Labels: outcome (success, error)
	EmbeddingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Total number of embedding batch requests by outcome",
		},
		[]string{"outcome"},
	)

	// EmbeddingBatchDuration tracks the latency of one embedding batch call.
	EmbeddingBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "batch_seconds",
			Help:      "Duration of embedding batch calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
	)

	// QueryTotal counts answered queries.
	// Labels: outcome (success, empty, error)
	QueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "total",
			Help:      "Total number of queries by outcome",
		},
		[]string{"outcome"},
	)

	// QueryDuration tracks end-to-end query latency.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Duration of queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// VectorIndexEntries reports the vector index population.
	// Labels: state (live, tombstoned)
	VectorIndexEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vectorindex",
			Name:      "entries",
			Help:      "Number of vector index entries by state",
		},
		[]string{"state"},
	)
)

// RecordIngest records the final status of one ingestion.
func RecordIngest(status string, chunks int) {
	IngestDocumentsTotal.WithLabelValues(status).Inc()
	if chunks > 0 {
		IngestChunksTotal.Add(float64(chunks))
	}
}

// RecordEmbedding records one embedding batch call.
func RecordEmbedding(err error, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	EmbeddingRequestsTotal.WithLabelValues(outcome).Inc()
	EmbeddingBatchDuration.Observe(elapsed.Seconds())
}

// RecordQuery records one query with its outcome label.
func RecordQuery(outcome string, elapsed time.Duration) {
	QueryTotal.WithLabelValues(outcome).Inc()
	QueryDuration.Observe(elapsed.Seconds())
}

// SetIndexEntries publishes the vector index population.
func SetIndexEntries(live, tombstoned int) {
	VectorIndexEntries.WithLabelValues("live").Set(float64(live))
	VectorIndexEntries.WithLabelValues("tombstoned").Set(float64(tombstoned))
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
