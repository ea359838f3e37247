package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/sigdex/internal/db"
)

const (
	testIndex  = "sigdex:signals:idx"
	testPrefix = "sigdex:signal:"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchKNNFn  func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchTextFn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testIndex, testPrefix), ms
}

func testVector() []float32 {
	return []float32{0.1, 0.1, 0.1, 0.1}
}
