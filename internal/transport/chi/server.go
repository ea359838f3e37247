package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/search/request"
	"github.com/kailas-cloud/sigdex/internal/domain/search/result"
	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	logpkg "github.com/kailas-cloud/sigdex/internal/logger"
	collectuc "github.com/kailas-cloud/sigdex/internal/usecase/collect"
	healthuc "github.com/kailas-cloud/sigdex/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Collector runs and queues collections.
type Collector interface {
	CollectNow(ctx context.Context, query string) ([]signal.Signal, error)
	Queue(ctx context.Context, query string) bool
	Status() collectuc.Status
}

// Searcher answers hybrid search requests.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Response, error)
}

// StatsReader summarizes the index.
type StatsReader interface {
	Stats(ctx context.Context) (signal.Stats, error)
}

// HealthChecker reports dependency status.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers of the sigdex API.
type Server struct {
	collector     Collector
	search        Searcher
	stats         StatsReader
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	collector Collector,
	search Searcher,
	stats StatsReader,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		collector: collector,
		search:    search,
		stats:     stats,
		health:    health,
		logger:    logger.With(zap.String("component", "http")),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorResponseCodeVectorDimMismatch),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrPlatformFailed, http.StatusBadGateway, ErrorResponseCodePlatformFailed),
		sentinelHandler(domain.ErrIndexUnavailable,
			http.StatusServiceUnavailable, ErrorResponseCodeIndexUnavailable),
		sentinelHandler(domain.ErrIndexNotReady,
			http.StatusServiceUnavailable, ErrorResponseCodeIndexUnavailable),
	}
	return s
}

// Collect handles POST /api/v1/collect. The call is synchronous.
func (s *Server) Collect(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if !s.bindBody(w, r, &req) {
		return
	}

	signals, err := s.collector.CollectNow(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	if signals == nil {
		signals = []signal.Signal{}
	}

	writeJSON(w, http.StatusOK, CollectResponse{
		Query:   signal.NormalizeQuery(req.Query),
		Signals: signals,
		Count:   len(signals),
	})
}

// EnqueueQuery handles POST /api/v1/queue.
func (s *Server) EnqueueQuery(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if !s.bindBody(w, r, &req) {
		return
	}

	queued := s.collector.Queue(r.Context(), req.Query)

	writeJSON(w, http.StatusAccepted, QueueResponse{
		Query:  signal.NormalizeQuery(req.Query),
		Queued: queued,
		Status: s.collector.Status(),
	})
}

// QueueStatus handles GET /api/v1/queue.
func (s *Server) QueueStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Status())
}

// SearchJSON handles POST /api/v1/search.
func (s *Server) SearchJSON(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.bindBody(w, r, &req) {
		return
	}
	s.runSearch(w, r, req)
}

// SearchQuery handles GET /api/v1/search.
func (s *Server) SearchQuery(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}
	req := params.toRequest()
	if err := validateStruct(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}
	s.runSearch(w, r, req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	searchReq, err := searchRequestFromAPI(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	results := resp.Results
	if results == nil {
		results = []signal.Signal{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:        resp.Query,
		Results:      results,
		TotalResults: resp.TotalResults,
		SearchTimeMs: resp.SearchTimeMs,
		Mode:         string(resp.Mode),
		Reranked:     resp.Reranked,
	})
}

// Stats handles GET /api/v1/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Stats(r.Context())
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Total:      st.Total,
		ByPlatform: st.ByPlatform,
		Queue:      s.collector.Status(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindBody decodes and validates a JSON body, writing the 400 itself on failure.
func (s *Server) bindBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validateStruct(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return false
	}
	return true
}

// bindSearchParams binds GET /api/v1/search query parameters.
// Lists are comma separated: ?platforms=reddit,github.
func bindSearchParams(r *http.Request) (SearchParams, error) {
	var p SearchParams
	query := r.URL.Query()

	bindings := []struct {
		name     string
		explode  bool
		required bool
		dest     any
	}{
		{"q", true, true, &p.Q},
		{"platforms", false, false, &p.Platforms},
		{"date_from", true, false, &p.DateFrom},
		{"date_to", true, false, &p.DateTo},
		{"min_score", true, false, &p.MinScore},
		{"tags", false, false, &p.Tags},
		{"keywords", false, false, &p.Keywords},
		{"sentiment", true, false, &p.Sentiment},
		{"domains", false, false, &p.Domains},
		{"min_quality", true, false, &p.MinQuality},
		{"problems_only", true, false, &p.ProblemsOnly},
		{"limit", true, false, &p.Limit},
		{"offset", true, false, &p.Offset},
		{"rerank", true, false, &p.Rerank},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", b.explode, b.required, b.name, query, b.dest); err != nil {
			return SearchParams{}, fmt.Errorf("invalid format for parameter %s: %w", b.name, err)
		}
	}
	return p, nil
}

func searchRequestFromAPI(req SearchRequest) (request.Request, error) {
	platforms, err := collectuc.ParsePlatforms(req.Platforms)
	if err != nil {
		return request.Request{}, err
	}
	filters := request.Filters{
		Platforms:    platforms,
		DateFrom:     req.DateFrom,
		DateTo:       req.DateTo,
		MinScore:     req.MinScore,
		Tags:         req.Tags,
		Keywords:     req.Keywords,
		Sentiment:    signal.SentimentLabel(req.Sentiment),
		Domains:      req.Domains,
		MinQuality:   req.MinQuality,
		ProblemsOnly: req.ProblemsOnly,
	}
	out, err := request.New(req.Query, filters, derefInt(req.Limit), derefInt(req.Offset), req.Rerank)
	if err != nil {
		return request.Request{}, fmt.Errorf("search request: %w", err)
	}
	return out, nil
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrPlatformFailed,
		domain.ErrIndexUnavailable,
		domain.ErrIndexNotReady,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := logpkg.For(ctx, s.logger)
	logger.Warn("Domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
