package chi

import (
	"encoding/json"
	"net/http"
	"time"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/sigdex/internal/logger"
	"github.com/kailas-cloud/sigdex/internal/metrics"
)

// RouterOptions configures the middleware chain.
type RouterOptions struct {
	APIKeys     []string // empty disables auth
	CORSOrigins []string // empty disables CORS
}

// NewRouter mounts the server handlers behind the standard middleware chain.
func NewRouter(s *Server, opts RouterOptions, logger *zap.Logger) http.Handler {
	r := gochi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	if len(opts.CORSOrigins) > 0 {
		// Preflight requests carry no credentials, so CORS runs before auth.
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorResponseCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponseCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r gochi.Router) {
		r.Post("/collect", s.Collect)
		r.Post("/queue", s.EnqueueQuery)
		r.Get("/queue", s.QueueStatus)
		r.Post("/search", s.SearchJSON)
		r.Get("/search", s.SearchQuery)
		r.Get("/stats", s.Stats)
	})

	return r
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("Panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(ErrorResponse{
						Code:    ErrorResponseCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// RequestID runs first and has already stored the id
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			ctx := logpkg.WithFields(r.Context(), zap.String("request_id", requestID))
			reqLogger := logpkg.For(ctx, logger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("Http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
