// Package search implements hybrid keyword and vector retrieval over signals.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/search/mode"
	"github.com/kailas-cloud/sigdex/internal/domain/search/request"
	"github.com/kailas-cloud/sigdex/internal/domain/search/result"
	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	logpkg "github.com/kailas-cloud/sigdex/internal/logger"
	"github.com/kailas-cloud/sigdex/internal/metrics"
	"github.com/kailas-cloud/sigdex/internal/usecase/pipeline"
)

// Retrieval defaults. MaxCandidateDepth covers the deepest page a request may
// ask for plus one lookahead candidate.
const (
	DefaultRerankWindow = 100
	MaxCandidateDepth   = request.MaxOffset + request.MaxLimit + 1
)

// Config tunes the retriever.
type Config struct {
	RerankWindow    int
	VectorCacheSize int
	VectorCacheTTL  time.Duration
	Now             func() time.Time
}

// Service handles hybrid signal search with optional reranking.
type Service struct {
	repo     Repository
	counter  Counter
	vectors  *vectorCache
	reranker domain.Reranker
	window   int
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a search service. reranker may be nil.
func New(
	repo Repository, counter Counter, embed Embedder, reranker domain.Reranker,
	cfg Config, logger *zap.Logger,
) *Service {
	if cfg.RerankWindow <= 0 {
		cfg.RerankWindow = DefaultRerankWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		repo:     repo,
		counter:  counter,
		vectors:  newVectorCache(embed, cfg.VectorCacheSize, cfg.VectorCacheTTL),
		reranker: reranker,
		window:   min(cfg.RerankWindow, MaxCandidateDepth),
		now:      cfg.Now,
		logger:   logger.With(zap.String("component", "search")),
	}
}

// Search runs both clauses, fuses them and returns one page.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	start := time.Now()
	logger := logpkg.For(ctx, s.logger)

	// One extra candidate lets TotalResults exceed the page end when more results exist.
	depth := min(req.Depth()+1, MaxCandidateDepth)
	rerank := req.Rerank() && s.reranker != nil && s.reranker.Available(ctx)
	if req.Rerank() && !rerank {
		metrics.SearchFallbackTotal.WithLabelValues("rerank").Inc()
		logger.Debug("Reranker unavailable, using standard path")
	}
	if rerank {
		depth = min(max(depth, s.window), MaxCandidateDepth)
	}

	candidates, m, err := s.firstStage(ctx, req, depth)
	if err != nil {
		return result.Response{}, err
	}

	if rerank && len(candidates) > 0 {
		reordered, err := s.rerank(ctx, req.Query(), candidates)
		if err != nil {
			metrics.SearchFallbackTotal.WithLabelValues("rerank").Inc()
			logger.Warn("Rerank failed, using standard order", zap.Error(err))
		} else {
			candidates, m = reordered, mode.Reranked
		}
	}

	resp := result.Response{
		Query:        req.Query(),
		Results:      s.page(candidates, req.Offset(), req.Limit()),
		TotalResults: len(candidates),
		Reranked:     m == mode.Reranked,
		Mode:         m,
	}
	elapsed := time.Since(start)
	resp.SearchTimeMs = elapsed.Milliseconds()

	metrics.SearchRequestsTotal.WithLabelValues(string(m)).Inc()
	metrics.SearchDuration.WithLabelValues(string(m)).Observe(elapsed.Seconds())
	return resp, nil
}

// firstStage runs the keyword and vector clauses concurrently and fuses them.
// A failed or empty query embedding degrades to keyword-only.
func (s *Service) firstStage(
	ctx context.Context, req *request.Request, depth int,
) ([]fused, mode.Mode, error) {
	var keywordHits, vectorHits []result.Hit
	vectorUsed := false

	logger := logpkg.For(ctx, s.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.repo.SearchKeyword(gctx, req.Query(), req.Expression(), depth)
		if err != nil {
			return err //nolint:wrapcheck // repository already wraps
		}
		keywordHits = hits
		return nil
	})
	g.Go(func() error {
		vec, err := s.vectors.vector(gctx, req.Query())
		if err != nil {
			metrics.SearchFallbackTotal.WithLabelValues("embedding").Inc()
			logger.Warn("Query embedding failed, keyword only", zap.Error(err))
			return nil
		}
		if domain.IsZeroVector(vec) {
			return nil
		}
		hits, err := s.repo.SearchVector(gctx, vec, req.Expression(), depth)
		if err != nil {
			return err //nolint:wrapcheck // repository already wraps
		}
		vectorHits, vectorUsed = hits, true
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, "", fmt.Errorf("search: %w", err)
	}

	m := mode.Keyword
	if vectorUsed {
		m = mode.Hybrid
	}
	return fuseRRF(vectorHits, keywordHits), m, nil
}

// rerank reorders the first-stage window against each candidate's body.
// Candidates the reranker drops are discarded; those past the window keep
// their fused order behind the reranked ones.
func (s *Service) rerank(ctx context.Context, query string, candidates []fused) ([]fused, error) {
	window := candidates[:min(len(candidates), s.window)]
	docs := make([]domain.RerankCandidate, len(window))
	byID := make(map[string]fused, len(window))
	for i, c := range window {
		docs[i] = domain.RerankCandidate{ID: c.hit.ID(), Text: rerankText(c.hit.Signal())}
		byID[c.hit.ID()] = c
	}

	ids, err := s.reranker.Rerank(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("rerank: %w: empty ranking", domain.ErrRerankUnavailable)
	}

	out := make([]fused, 0, len(ids)+len(candidates)-len(window))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			continue
		}
		delete(byID, id)
		c.score = rankScore(len(out))
		out = append(out, c)
	}
	for _, c := range candidates[len(window):] {
		c.score = rankScore(len(out))
		out = append(out, c)
	}
	return out, nil
}

// rerankText is the body, or the title for link posts without one.
func rerankText(sig signal.Signal) string {
	if sig.Body != "" {
		return sig.Body
	}
	return sig.Title
}

// page slices one page and applies the freshness multiplier to each score.
func (s *Service) page(candidates []fused, offset, limit int) []signal.Signal {
	if offset >= len(candidates) {
		return []signal.Signal{}
	}
	end := min(offset+limit, len(candidates))
	now := s.now()

	out := make([]signal.Signal, 0, end-offset)
	for _, c := range candidates[offset:end] {
		sig := c.hit.Signal()
		sig.Embedding = nil
		sig.RelevanceScore = c.score * pipeline.FreshnessMultiplier(sig.CreatedAt, now)
		out = append(out, sig)
	}
	return out
}

// Count returns the number of indexed signals.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.counter.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return n, nil
}
