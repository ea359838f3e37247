package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/sigdex/internal/domain/search/filter"
	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100
	MaxOffset      = 1000
)

var textFields = []string{signal.FieldTitle, signal.FieldBody}

// Filters are hard constraints applied to every retrieval clause.
type Filters struct {
	Platforms    []signal.Platform
	DateFrom     *time.Time
	DateTo       *time.Time
	MinScore     *int
	Tags         []string
	Keywords     []string
	Sentiment    signal.SentimentLabel
	Domains      []string
	MinQuality   *float64
	ProblemsOnly bool
}

// Request is a validated search query.
type Request struct {
	query   string
	filters Filters
	expr    filter.Expression
	limit   int
	offset  int
	rerank  bool
}

// New validates and normalizes search parameters.
// Defaults: limit=20. Limit is clamped to MaxLimit, offset must be in [0, MaxOffset].
func New(query string, filters Filters, limit, offset int, rerank bool) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 || offset > MaxOffset {
		return Request{}, fmt.Errorf("offset must be between 0 and %d", MaxOffset)
	}

	expr, err := filters.Expression()
	if err != nil {
		return Request{}, fmt.Errorf("filters: %w", err)
	}

	return Request{
		query:   query,
		filters: filters,
		expr:    expr,
		limit:   limit,
		offset:  offset,
		rerank:  rerank,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Filters returns the raw filter values.
func (r *Request) Filters() Filters { return r.filters }

// Expression returns the filters compiled into must/must_not conditions.
func (r *Request) Expression() filter.Expression { return r.expr }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Offset returns the number of ranked results to skip.
func (r *Request) Offset() int { return r.offset }

// Rerank reports whether the reranked path was requested.
func (r *Request) Rerank() bool { return r.rerank }

// Depth is the number of ranked candidates needed to serve the page.
func (r *Request) Depth() int { return r.offset + r.limit }

// Expression compiles the filters into a conjunction of conditions.
func (f Filters) Expression() (filter.Expression, error) {
	var must []filter.Condition
	add := func(c filter.Condition, err error) error {
		if err != nil {
			return err
		}
		must = append(must, c)
		return nil
	}

	if len(f.Platforms) > 0 {
		vals := make([]string, 0, len(f.Platforms))
		for _, p := range f.Platforms {
			if !p.IsValid() {
				return filter.Expression{}, fmt.Errorf("invalid platform %q", p)
			}
			vals = append(vals, string(p))
		}
		if err := add(filter.NewAnyOf(signal.FieldPlatform, vals)); err != nil {
			return filter.Expression{}, err
		}
	}

	if f.DateFrom != nil || f.DateTo != nil {
		var lo, hi *float64
		if f.DateFrom != nil {
			v := float64(f.DateFrom.Unix())
			lo = &v
		}
		if f.DateTo != nil {
			v := float64(f.DateTo.Unix())
			hi = &v
		}
		r, err := filter.NewRangeFilter(nil, lo, nil, hi)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("date range: %w", err)
		}
		if err := add(filter.NewRange(signal.FieldCreatedAt, r)); err != nil {
			return filter.Expression{}, err
		}
	}

	if f.MinScore != nil {
		if *f.MinScore < 0 {
			return filter.Expression{}, fmt.Errorf("min_score must be non-negative")
		}
		v := float64(*f.MinScore)
		r, _ := filter.NewRangeFilter(nil, &v, nil, nil)
		if err := add(filter.NewRange(signal.FieldScore, r)); err != nil {
			return filter.Expression{}, err
		}
	}

	if len(f.Tags) > 0 {
		if err := add(filter.NewAnyOf(signal.FieldTags, lower(f.Tags))); err != nil {
			return filter.Expression{}, err
		}
	}

	if len(f.Keywords) > 0 {
		if err := add(filter.NewText(textFields, f.Keywords)); err != nil {
			return filter.Expression{}, err
		}
	}

	if f.Sentiment != "" {
		if !f.Sentiment.IsValid() {
			return filter.Expression{}, fmt.Errorf("invalid sentiment %q", f.Sentiment)
		}
		if err := add(filter.NewMatch(signal.FieldSentiment, string(f.Sentiment))); err != nil {
			return filter.Expression{}, err
		}
	}

	if len(f.Domains) > 0 {
		if err := add(filter.NewAnyOf(signal.FieldDomain, lower(f.Domains))); err != nil {
			return filter.Expression{}, err
		}
	}

	if f.MinQuality != nil {
		if *f.MinQuality < 0 || *f.MinQuality > 100 {
			return filter.Expression{}, fmt.Errorf("min_quality must be between 0 and 100")
		}
		r, _ := filter.NewRangeFilter(nil, f.MinQuality, nil, nil)
		if err := add(filter.NewRange(signal.FieldQualityScore, r)); err != nil {
			return filter.Expression{}, err
		}
	}

	if f.ProblemsOnly {
		if err := add(filter.NewMatch(signal.FieldProblem, "true")); err != nil {
			return filter.Expression{}, err
		}
	}

	return filter.NewExpression(must, nil, nil)
}

func lower(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
