package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider-level metrics, labelled by provider and model.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sigdex",
		Subsystem: "embedding",
		Name:      "requests_total",
		Help:      "Embedding provider requests by outcome.",
	}, []string{"provider", "model", "status"})

	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sigdex",
		Subsystem: "embedding",
		Name:      "request_duration_seconds",
		Help:      "Latency of successful embedding provider requests.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 9), // 50ms .. 12.8s
	}, []string{"provider", "model"})

	EmbeddingTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sigdex",
		Subsystem: "embedding",
		Name:      "tokens_total",
		Help:      "Tokens billed by the embedding provider, split into prompt and total.",
	}, []string{"provider", "model", "type"})

	EmbeddingErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sigdex",
		Subsystem: "embedding",
		Name:      "errors_total",
		Help:      "Embedding provider failures by kind.",
	}, []string{"provider", "model", "error_type"})
)

// Pipeline-level metrics.
var (
	// EmbeddingCacheTotal has label result = hit | miss.
	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sigdex",
		Subsystem: "embedding",
		Name:      "cache_total",
		Help:      "Persistent embedding cache lookups.",
	}, []string{"result"})

	EmbeddingBatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sigdex",
		Subsystem: "embedding",
		Name:      "batches_total",
		Help:      "Signal enrichment sub-batches by outcome.",
	}, []string{"status"})

	EmbeddingChunksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sigdex",
		Subsystem: "embedding",
		Name:      "chunks_total",
		Help:      "Provider-sized chunks sent for batch embedding.",
	}, []string{"provider", "status"})
)

var embOnce sync.Once

// RegisterEmbeddingMetrics registers the embedding collectors once per process.
func RegisterEmbeddingMetrics() {
	embOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			EmbeddingBatchesTotal,
			EmbeddingChunksTotal,
		)
	})
}
