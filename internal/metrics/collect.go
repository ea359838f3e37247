package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collection pipeline metrics.
var (
	PlatformFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigdex",
			Name:      "platform_fetch_total",
			Help:      "Platform adapter calls by outcome",
		},
		[]string{"platform", "status"},
	)

	PlatformFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sigdex",
			Name:      "platform_fetch_duration_seconds",
			Help:      "Platform adapter call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"platform"},
	)

	SignalsCollectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigdex",
			Name:      "signals_collected_total",
			Help:      "Raw signals returned by platform adapters",
		},
		[]string{"platform"},
	)

	SignalsIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sigdex",
			Name:      "signals_indexed_total",
			Help:      "Signals persisted to the index after enrichment",
		},
	)

	CollectQueueLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sigdex",
			Name:      "collect_queue_length",
			Help:      "Queries waiting for batched background collection",
		},
	)

	CollectJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigdex",
			Name:      "collect_jobs_total",
			Help:      "Background collection jobs by outcome",
		},
		[]string{"status"}, // "success" / "error" / "dropped"
	)
)

var collectOnce sync.Once

// RegisterCollectMetrics registers collection metrics. Safe to call repeatedly.
func RegisterCollectMetrics() {
	collectOnce.Do(func() {
		prometheus.MustRegister(PlatformFetchTotal)
		prometheus.MustRegister(PlatformFetchDuration)
		prometheus.MustRegister(SignalsCollectedTotal)
		prometheus.MustRegister(SignalsIndexedTotal)
		prometheus.MustRegister(CollectQueueLength)
		prometheus.MustRegister(CollectJobsTotal)
	})
}
