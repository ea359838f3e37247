// Package collect orchestrates platform fan-out, enrichment and indexing.
package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	logpkg "github.com/kailas-cloud/sigdex/internal/logger"
	"github.com/kailas-cloud/sigdex/internal/metrics"
)

// DefaultPlatformLimit is the per-platform item count for one collection.
const DefaultPlatformLimit = 25

// Config tunes the orchestrator.
type Config struct {
	PlatformLimit int
	// Enabled restricts fan-out; empty means every registered adapter.
	Enabled []signal.Platform
}

// Status is a snapshot of the orchestrator state.
type Status struct {
	QueueLength      int               `json:"queue_length"`
	Threshold        int               `json:"threshold"`
	ProcessedCount   int               `json:"processed_count"`
	EnabledPlatforms []signal.Platform `json:"enabled_platforms"`
}

// Outcome records how one platform branch of a collection went.
type Outcome struct {
	Platform signal.Platform
	Count    int
	Err      error
}

// Orchestrator fans a query out to platform adapters and indexes the result.
type Orchestrator struct {
	state    *QueueState
	adapters map[signal.Platform]Adapter
	enricher Enricher
	indexer  Indexer
	runner   *Runner
	limit    int
	logger   *zap.Logger

	mu      sync.RWMutex
	enabled []signal.Platform
}

// New creates an orchestrator. Adapters are keyed by their platform.
func New(
	state *QueueState, adapters []Adapter, enricher Enricher, indexer Indexer,
	runner *Runner, cfg Config, logger *zap.Logger,
) *Orchestrator {
	if cfg.PlatformLimit <= 0 {
		cfg.PlatformLimit = DefaultPlatformLimit
	}
	o := &Orchestrator{
		state:    state,
		adapters: make(map[signal.Platform]Adapter, len(adapters)),
		enricher: enricher,
		indexer:  indexer,
		runner:   runner,
		limit:    cfg.PlatformLimit,
		logger:   logger.With(zap.String("component", "orchestrator")),
	}
	for _, a := range adapters {
		o.adapters[a.Platform()] = a
	}
	if err := o.SetEnabled(cfg.Enabled); err != nil {
		o.logger.Warn("Ignoring enabled platforms", zap.Error(err))
		_ = o.SetEnabled(nil)
	}
	return o
}

// SetEnabled replaces the enabled platform set. Nil enables every adapter.
func (o *Orchestrator) SetEnabled(platforms []signal.Platform) error {
	var next []signal.Platform
	if len(platforms) == 0 {
		for _, p := range signal.AllPlatforms() {
			if _, ok := o.adapters[p]; ok {
				next = append(next, p)
			}
		}
	} else {
		seen := make(map[signal.Platform]struct{}, len(platforms))
		for _, p := range platforms {
			if _, ok := o.adapters[p]; !ok {
				return fmt.Errorf("%w: platform %q has no adapter", domain.ErrInvalidQuery, p)
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			next = append(next, p)
		}
	}

	o.mu.Lock()
	o.enabled = next
	o.mu.Unlock()
	return nil
}

// Enabled returns a copy of the enabled platform list.
func (o *Orchestrator) Enabled() []signal.Platform {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]signal.Platform(nil), o.enabled...)
}

// Queue records a query for deferred collection. It never blocks on
// collection; reaching the threshold launches one background batch.
func (o *Orchestrator) Queue(ctx context.Context, query string) bool {
	q := signal.NormalizeQuery(query)
	if q == "" || len(q) > signal.MaxCollectQueryLength {
		return false
	}
	added, batch := o.state.Push(q)
	if len(batch) > 0 {
		o.submitBatch(ctx, batch)
	}
	return added
}

// Flush launches a background batch for whatever is queued.
// It returns the number of queries submitted.
func (o *Orchestrator) Flush(ctx context.Context) int {
	batch := o.state.Drain()
	if len(batch) == 0 || !o.submitBatch(ctx, batch) {
		return 0
	}
	return len(batch)
}

// submitBatch hands batch to the runner. A batch the runner refuses goes
// back on the queue for the next threshold or flush.
func (o *Orchestrator) submitBatch(ctx context.Context, batch []string) bool {
	id, err := o.runner.Submit(ctx, "collect_batch", func(ctx context.Context) error {
		var errs []error
		for _, q := range batch {
			if _, err := o.CollectNow(ctx, q); err != nil {
				errs = append(errs, fmt.Errorf("query %q: %w", q, err))
			}
		}
		return errors.Join(errs...)
	})
	if err != nil {
		o.state.Requeue(batch)
		o.logger.Error("Background collection not scheduled, queries requeued",
			zap.Int("queries", len(batch)), zap.Error(err))
		return false
	}
	o.logger.Info("Background collection scheduled",
		zap.String("job_id", id), zap.Int("queries", len(batch)))
	return true
}

// CollectNow fetches, enriches and indexes one query synchronously.
// Platform failures are isolated; enrichment and indexing failures are returned.
// A query that was already processed returns an empty result without fetching.
func (o *Orchestrator) CollectNow(ctx context.Context, query string) ([]signal.Signal, error) {
	req, err := signal.NewCollectionRequest(query, o.Enabled(), o.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	logger := logpkg.For(ctx, o.logger)
	if o.state.IsProcessed(req.Query) {
		logger.Debug("Query already processed", zap.String("query", req.Query))
		return []signal.Signal{}, nil
	}

	raw, outcomes := o.fetchAll(ctx, req)
	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
		}
	}
	if len(outcomes) > 0 && failed == len(outcomes) {
		logger.Warn("Every platform failed", zap.String("query", req.Query))
		return []signal.Signal{}, nil
	}

	enriched, err := o.enricher.Enrich(ctx, raw, req.Query)
	if err != nil {
		return nil, fmt.Errorf("collect %q: %w", req.Query, err)
	}
	if len(enriched) > 0 {
		if err := o.indexer.Upsert(ctx, enriched); err != nil {
			return nil, fmt.Errorf("collect %q: index: %w", req.Query, err)
		}
		metrics.SignalsIndexedTotal.Add(float64(len(enriched)))
	}
	o.state.MarkProcessed(req.Query)

	logger.Info("Collection finished",
		zap.String("query", req.Query),
		zap.Int("fetched", len(raw)),
		zap.Int("indexed", len(enriched)),
		zap.Int("failed_platforms", failed),
	)
	if enriched == nil {
		enriched = []signal.Signal{}
	}
	return enriched, nil
}

// fetchAll queries every requested platform concurrently. Each branch
// records its own outcome and never cancels its siblings.
func (o *Orchestrator) fetchAll(ctx context.Context, req signal.CollectionRequest) ([]signal.Signal, []Outcome) {
	outcomes := make([]Outcome, len(req.Platforms))
	results := make([][]signal.Signal, len(req.Platforms))

	logger := logpkg.For(ctx, o.logger)

	var g errgroup.Group
	for i, p := range req.Platforms {
		adapter := o.adapters[p]
		g.Go(func() error {
			start := time.Now()
			items, err := adapter.Fetch(ctx, req.Query, req.Quota(p))
			metrics.PlatformFetchDuration.WithLabelValues(string(p)).Observe(time.Since(start).Seconds())

			outcomes[i] = Outcome{Platform: p, Count: len(items), Err: err}
			if err != nil {
				metrics.PlatformFetchTotal.WithLabelValues(string(p), "error").Inc()
				logger.Warn("Platform fetch failed",
					zap.String("platform", string(p)),
					zap.String("query", req.Query),
					zap.Bool("rate_limited", errors.Is(err, domain.ErrRateLimited)),
					zap.Error(err),
				)
				return nil
			}
			metrics.PlatformFetchTotal.WithLabelValues(string(p), "success").Inc()
			metrics.SignalsCollectedTotal.WithLabelValues(string(p)).Add(float64(len(items)))
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var merged []signal.Signal
	for _, items := range results {
		merged = append(merged, items...)
	}
	return merged, outcomes
}

// Status returns queue and platform state.
func (o *Orchestrator) Status() Status {
	return Status{
		QueueLength:      o.state.Len(),
		Threshold:        o.state.Threshold(),
		ProcessedCount:   o.state.ProcessedCount(),
		EnabledPlatforms: o.Enabled(),
	}
}

// ParsePlatforms parses a comma-separated or repeated platform list.
func ParsePlatforms(values []string) ([]signal.Platform, error) {
	var out []signal.Platform
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			p, err := signal.ParsePlatform(part)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
			}
			out = append(out, p)
		}
	}
	return out, nil
}
