package collect

import (
	"context"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

// Adapter fetches normalized signals from one content platform.
type Adapter interface {
	Platform() signal.Platform
	Fetch(ctx context.Context, query string, limit int) ([]signal.Signal, error)
}

// Enricher analyzes, filters and embeds raw signals.
type Enricher interface {
	Enrich(ctx context.Context, signals []signal.Signal, query string) ([]signal.Signal, error)
}

// Indexer persists enriched signals.
type Indexer interface {
	Upsert(ctx context.Context, signals []signal.Signal) error
}
