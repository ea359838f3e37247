package signal

import (
	"context"
	"time"

	"github.com/kailas-cloud/sigdex/internal/db"
	domsig "github.com/kailas-cloud/sigdex/internal/domain/signal"
)

const testVectorDim = 4

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string, deleteDocs bool) error
	countFn       func(ctx context.Context, q *db.CountQuery) (int, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name, deleteDocs)
	}
	return nil
}

func (m *mockStore) SearchCount(ctx context.Context, q *db.CountQuery) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, q)
	}
	return 0, nil
}

func newTestRepo(s *mockStore) *Repo {
	return New(s, Config{VectorDim: testVectorDim, BatchSize: 2})
}

func testSignal(native string) domsig.Signal {
	return domsig.Signal{
		ID:          domsig.NewID(domsig.PlatformReddit, native),
		Platform:    domsig.PlatformReddit,
		Title:       "Invoicing is painful",
		Body:        "Looking for a tool that handles recurring invoices",
		Author:      "alice",
		URL:         "https://reddit.com/r/saas/" + native,
		Tags:        []string{"SaaS", "problem"},
		Score:       42,
		NumComments: 7,
		CreatedAt:   time.Unix(1700000000, 0),
		IndexedAt:   time.Unix(1700000600, 0),
		Embedding:   []float32{0.1, 0.2, 0.3, 0.4},
	}
}
