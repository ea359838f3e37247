package search

import (
	"context"

	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/search/filter"
	"github.com/kailas-cloud/sigdex/internal/domain/search/result"
)

// Repository runs the two retrieval clauses.
type Repository interface {
	SearchKeyword(
		ctx context.Context, query string, filters filter.Expression, limit int,
	) ([]result.Hit, error)

	SearchVector(
		ctx context.Context, vector []float32, filters filter.Expression, k int,
	) ([]result.Hit, error)
}

// Counter reports the number of indexed signals.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
