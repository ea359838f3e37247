package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	"github.com/kailas-cloud/sigdex/internal/usecase/analyze"
)

// embedder attaches vectors to signals in place.
type embedder interface {
	EmbedSignals(ctx context.Context, signals []signal.Signal) error
}

// Enricher analyzes, filters and embeds freshly collected signals.
type Enricher struct {
	filter   *Filter
	embedder embedder
	now      func() time.Time
	logger   *zap.Logger
}

// NewEnricher creates an enricher. The filter clock also stamps IndexedAt.
func NewEnricher(filter *Filter, emb embedder, logger *zap.Logger) *Enricher {
	return &Enricher{
		filter:   filter,
		embedder: emb,
		now:      filter.cfg.Now,
		logger:   logger.With(zap.String("component", "enricher")),
	}
}

// Enrich returns persist-ready signals. An embedding failure is returned as is.
func (e *Enricher) Enrich(ctx context.Context, signals []signal.Signal, query string) ([]signal.Signal, error) {
	if len(signals) == 0 {
		return nil, nil
	}
	for i := range signals {
		analyze.Analyze(&signals[i])
	}

	kept := e.filter.Process(signals, query)
	e.logger.Debug("Filtered signals",
		zap.String("query", query),
		zap.Int("in", len(signals)),
		zap.Int("kept", len(kept)),
	)
	if len(kept) == 0 {
		return nil, nil
	}

	if err := e.embedder.EmbedSignals(ctx, kept); err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}

	now := e.now().UTC()
	for i := range kept {
		kept[i].IndexedAt = now
	}
	return kept, nil
}
