package search

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/search/filter"
	"github.com/kailas-cloud/sigdex/internal/domain/search/request"
	"github.com/kailas-cloud/sigdex/internal/domain/search/result"
	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockRepo struct {
	mu sync.Mutex

	keywordHits  []result.Hit
	keywordErr   error
	vectorHits   []result.Hit
	vectorErr    error
	keywordLimit int
	vectorK      int
	vectorCalled bool
}

func (m *mockRepo) SearchKeyword(
	_ context.Context, _ string, _ filter.Expression, limit int,
) ([]result.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywordLimit = limit
	return head(m.keywordHits, limit), m.keywordErr
}

func (m *mockRepo) SearchVector(
	_ context.Context, _ []float32, _ filter.Expression, k int,
) ([]result.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectorCalled = true
	m.vectorK = k
	return head(m.vectorHits, k), m.vectorErr
}

func head(hits []result.Hit, n int) []result.Hit {
	if n < len(hits) {
		return hits[:n]
	}
	return hits
}

type mockEmbedder struct {
	mu    sync.Mutex
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockReranker struct {
	available bool
	order     []string
	err       error
	calls     int
	received  []domain.RerankCandidate
}

func (m *mockReranker) Available(context.Context) bool { return m.available }

func (m *mockReranker) Rerank(
	_ context.Context, _ string, candidates []domain.RerankCandidate,
) ([]string, error) {
	m.calls++
	m.received = candidates
	return m.order, m.err
}

type mockCounter struct {
	n   int
	err error
}

func (m *mockCounter) Count(context.Context) (int, error) { return m.n, m.err }

func hit(native string, score float64) result.Hit {
	id := signal.NewID(signal.PlatformReddit, native)
	return result.NewHit(id, score, signal.Signal{
		ID:       id,
		Platform: signal.PlatformReddit,
		Title:    "title " + native,
		Body:     "body " + native,
	})
}

func manyHits(n int) []result.Hit {
	out := make([]result.Hit, n)
	for i := range out {
		out[i] = hit(strconv.Itoa(i), float64(n-i))
	}
	return out
}

func newTestService(repo *mockRepo, emb *mockEmbedder, rr domain.Reranker) *Service {
	return New(repo, &mockCounter{n: 42}, emb, rr,
		Config{RerankWindow: 3, Now: func() time.Time { return testNow }}, zap.NewNop())
}

func mustRequest(t *testing.T, query string, limit, offset int, rerank bool) *request.Request {
	t.Helper()
	req, err := request.New(query, request.Filters{}, limit, offset, rerank)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return &req
}

func resultIDs(signals []signal.Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.ID
	}
	return out
}
