package chi

import (
	"time"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	collectuc "github.com/kailas-cloud/sigdex/internal/usecase/collect"
	healthuc "github.com/kailas-cloud/sigdex/internal/usecase/health"
)

// ErrorResponseCode is the machine-readable error kind in API responses.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeNotFound               ErrorResponseCode = "not_found"
	ErrorResponseCodeVectorDimMismatch      ErrorResponseCode = "vector_dim_mismatch"
	ErrorResponseCodeRateLimited            ErrorResponseCode = "rate_limited"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodePlatformFailed         ErrorResponseCode = "platform_failed"
	ErrorResponseCodeIndexUnavailable       ErrorResponseCode = "index_unavailable"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// CollectRequest is the body of POST /api/v1/collect and POST /api/v1/queue.
type CollectRequest struct {
	Query string `json:"query" validate:"required,max=512"`
}

// CollectResponse lists the signals persisted by one collection.
type CollectResponse struct {
	Query   string          `json:"query"`
	Signals []signal.Signal `json:"signals"`
	Count   int             `json:"count"`
}

// QueueResponse acknowledges a queued query.
type QueueResponse struct {
	Query  string           `json:"query"`
	Queued bool             `json:"queued"`
	Status collectuc.Status `json:"status"`
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query        string     `json:"query" validate:"required,max=4096"`
	Platforms    []string   `json:"platforms,omitempty" validate:"omitempty,dive,oneof=reddit hackernews github producthunt"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
	MinScore     *int       `json:"min_score,omitempty" validate:"omitempty,min=0"`
	Tags         []string   `json:"tags,omitempty" validate:"omitempty,dive,required"`
	Keywords     []string   `json:"keywords,omitempty" validate:"omitempty,dive,required"`
	Sentiment    string     `json:"sentiment,omitempty" validate:"omitempty,oneof=positive negative neutral"`
	Domains      []string   `json:"domains,omitempty" validate:"omitempty,dive,required"`
	MinQuality   *float64   `json:"min_quality,omitempty" validate:"omitempty,min=0,max=100"`
	ProblemsOnly bool       `json:"problems_only,omitempty"`
	Limit        *int       `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	Offset       *int       `json:"offset,omitempty" validate:"omitempty,min=0,max=1000"`
	Rerank       bool       `json:"rerank,omitempty"`
}

// SearchParams are the query parameters of GET /api/v1/search.
type SearchParams struct {
	Q            string
	Platforms    *[]string
	DateFrom     *time.Time
	DateTo       *time.Time
	MinScore     *int
	Tags         *[]string
	Keywords     *[]string
	Sentiment    *string
	Domains      *[]string
	MinQuality   *float64
	ProblemsOnly *bool
	Limit        *int
	Offset       *int
	Rerank       *bool
}

// SearchResponse is the ranked result page.
type SearchResponse struct {
	Query        string          `json:"query"`
	Results      []signal.Signal `json:"results"`
	TotalResults int             `json:"total_results"`
	SearchTimeMs int64           `json:"search_time_ms"`
	Mode         string          `json:"mode"`
	Reranked     bool            `json:"reranked"`
}

// StatsResponse summarizes the index and the collection queue.
type StatsResponse struct {
	Total      int                     `json:"total"`
	ByPlatform map[signal.Platform]int `json:"by_platform"`
	Queue      collectuc.Status        `json:"queue"`
}

// HealthResponse reports dependency status.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

func (p SearchParams) toRequest() SearchRequest {
	req := SearchRequest{
		Query:      p.Q,
		DateFrom:   p.DateFrom,
		DateTo:     p.DateTo,
		MinScore:   p.MinScore,
		MinQuality: p.MinQuality,
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
	req.Platforms = derefSlice(p.Platforms)
	req.Tags = derefSlice(p.Tags)
	req.Keywords = derefSlice(p.Keywords)
	req.Domains = derefSlice(p.Domains)
	if p.Sentiment != nil {
		req.Sentiment = *p.Sentiment
	}
	if p.ProblemsOnly != nil {
		req.ProblemsOnly = *p.ProblemsOnly
	}
	if p.Rerank != nil {
		req.Rerank = *p.Rerank
	}
	return req
}

func derefSlice(p *[]string) []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(*p))
	for _, v := range *p {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
