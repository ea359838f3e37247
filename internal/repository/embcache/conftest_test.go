package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/db"
	"github.com/kailas-cloud/sigdex/internal/domain"
)

// textEmbedder derives a one-dimensional vector from the text length and
// records every text it was asked to embed.
type textEmbedder struct {
	err     error
	zero    bool
	seen    []string
	batches int
}

func (e *textEmbedder) vector(text string) []float32 {
	if e.zero {
		return []float32{0}
	}
	return []float32{float32(len(text))}
}

func (e *textEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	e.seen = append(e.seen, text)
	return domain.EmbeddingResult{Embedding: e.vector(text), PromptTokens: 2, TotalTokens: 2}, nil
}

func (e *textEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.batches++
	return domain.BatchFallback(ctx, e, texts)
}

// probedTextEmbedder adds a health probe to textEmbedder.
type probedTextEmbedder struct {
	textEmbedder
	probeErr error
}

func (e *probedTextEmbedder) HealthCheck(context.Context) error { return e.probeErr }

// memStore is an in-memory key-value store. Errors, when set, are returned by every call.
type memStore struct {
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.data[key] = value
	return nil
}

func newCached(t *testing.T, inner domain.Embedder) (*CachedEmbedder, *memStore) {
	t.Helper()
	s := newMemStore()
	return New(inner, s, "bge-m3", nil, zap.NewNop()), s
}
