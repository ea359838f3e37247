package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// RerankChecker reports whether the reranking service answers its probe.
type RerankChecker interface {
	Available(ctx context.Context) bool
}
