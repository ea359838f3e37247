package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigdex",
			Name:      "search_requests_total",
			Help:      "Search calls by effective mode",
		},
		[]string{"mode"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sigdex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	SearchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigdex",
			Name:      "search_fallback_total",
			Help:      "Degraded searches by reason",
		},
		[]string{"reason"}, // "embedding" / "rerank"
	)

	QueryVectorCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigdex",
			Name:      "query_vector_cache_total",
			Help:      "In-process query embedding cache hits and misses",
		},
		[]string{"result"},
	)
)

var searchOnce sync.Once

// RegisterSearchMetrics registers retrieval metrics. Safe to call repeatedly.
func RegisterSearchMetrics() {
	searchOnce.Do(func() {
		prometheus.MustRegister(SearchRequestsTotal)
		prometheus.MustRegister(SearchDuration)
		prometheus.MustRegister(SearchFallbackTotal)
		prometheus.MustRegister(QueryVectorCacheTotal)
	})
}
