// Package metrics exposes Prometheus collectors for the sync pipeline and
// the query router. Collectors register with the default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "justask_sync_pages_total",
		Help: "Aggregate pages fetched by index synchronisation",
	})

	syncDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "justask_sync_documents_total",
		Help: "Documents handled by index synchronisation by outcome",
	}, []string{"outcome"}) // submitted, skipped, failed

	syncBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "justask_sync_batches_total",
		Help: "Index submission batches by result",
	}, []string{"result"}) // ok, error

	queryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "justask_queries_total",
		Help: "Questions answered by route and result",
	}, []string{"intent", "result"})

	queryFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "justask_query_fallbacks_total",
		Help: "Structured queries rerouted to semantic retrieval",
	})

	consolidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "justask_consolidations_total",
		Help: "Retrieval consolidations by strategy",
	}, []string{"strategy"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "justask_query_duration_seconds",
		Help:    "End-to-end question latency",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	}, []string{"intent"})
)

// SyncPage records one fetched aggregate page.
func SyncPage() {
	syncPages.Inc()
}

// SyncDocuments records n documents with the given outcome.
func SyncDocuments(outcome string, n int) {
	if n > 0 {
		syncDocuments.WithLabelValues(outcome).Add(float64(n))
	}
}

// SyncBatch records one submission batch.
func SyncBatch(err error) {
	syncBatches.WithLabelValues(result(err)).Inc()
}

// Query records one answered question.
func Query(intent string, err error, elapsed time.Duration) {
	queryTotal.WithLabelValues(intent, result(err)).Inc()
	queryDuration.WithLabelValues(intent).Observe(elapsed.Seconds())
}

// Fallback records a structured query rerouted to retrieval.
func Fallback() {
	queryFallbacks.Inc()
}

// Consolidation records the strategy chosen for a retrieval.
func Consolidation(strategy string) {
	consolidations.WithLabelValues(strategy).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
