package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests no route matched, keeping scanner noise
// out of the path label.
const unmatchedRoute = "unmatched"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sigdex",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			// Collect calls block on platform fetches and embedding, so the tail is long.
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigdex",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sigdex",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal, httpRequestsInFlight)
}

// Middleware records HTTP request duration, count and concurrency per chi
// route pattern. Scrapes of /metrics are not recorded.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			labels := []string{r.Method, routeLabel(r), strconv.Itoa(status)}
			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(labels...).Inc()
		})
	}
}

// routeLabel returns the matched route pattern, e.g. /api/v1/search.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}
