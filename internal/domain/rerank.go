package domain

import "context"

// RerankCandidate is one document offered to a cross-encoder reranker.
type RerankCandidate struct {
	ID   string
	Text string
}

// Reranker reorders first-stage candidates by relevance to the query.
type Reranker interface {
	Available(ctx context.Context) bool
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]string, error)
}
