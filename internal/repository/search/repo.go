package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/sigdex/internal/db"
	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/search/filter"
	"github.com/kailas-cloud/sigdex/internal/domain/search/result"
	domsig "github.com/kailas-cloud/sigdex/internal/domain/signal"
	signalrepo "github.com/kailas-cloud/sigdex/internal/repository/signal"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo runs the two retrieval clauses against the signal index.
type Repo struct {
	store     store
	indexName string
	prefix    string
}

// New creates a search repository bound to one index.
func New(s store, indexName, prefix string) *Repo {
	return &Repo{store: s, indexName: indexName, prefix: prefix}
}

// SearchKeyword runs a scored full-text query over title and body, with
// each query term also accepted as an exact tag. Hits are ordered by
// engine score.
func (r *Repo) SearchKeyword(
	ctx context.Context, query string, filters filter.Expression, limit int,
) ([]result.Hit, error) {
	q := &db.TextQuery{
		IndexName:    r.indexName,
		Terms:        query,
		TextFields:   []string{domsig.FieldTitle, domsig.FieldBody},
		TagField:     domsig.FieldTags,
		Filters:      filters,
		Limit:        limit,
		ReturnFields: signalrepo.ReturnFields,
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search keyword: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return r.toHits(sr), nil
}

// SearchVector runs a KNN query under the same filters. Scores are cosine
// similarity, highest first.
func (r *Repo) SearchVector(
	ctx context.Context, vector []float32, filters filter.Expression, k int,
) ([]result.Hit, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  domsig.FieldEmbedding,
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: signalrepo.ReturnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search vector: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return r.toHits(sr), nil
}

// toHits converts raw entries into ranked hits, preserving engine order.
func (r *Repo) toHits(sr *db.SearchResult) []result.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, r.prefix)
		hits = append(hits, result.NewHit(id, entry.Score, signalrepo.ParseHashFields(id, entry.Fields)))
	}
	return hits
}
