package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/db"
	"github.com/kailas-cloud/sigdex/internal/domain"
)

const cacheKeyPrefix = "sigdex:emb_cache:"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedEmbedder caches embeddings in a key-value store, keyed by model and text.
// Signals re-collected by later queries hit the cache instead of the provider.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	model      string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	s store,
	model string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		model:      model,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.putToCache(ctx, key, result.Embedding)
	return result, nil
}

// BatchEmbed serves hits from the cache and sends only the misses to the
// inner embedder, in one call when it supports batching.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	keys := make([]string, len(texts))
	var (
		missIdx   []int
		missTexts []string
	)
	for i, t := range texts {
		keys[i] = c.cacheKey(t)
		if vec, ok := c.getFromCache(ctx, keys[i]); ok {
			c.incCache("hit")
			out.Embeddings[i] = vec
			continue
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := c.inner.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, missTexts)
	} else {
		res, err = domain.BatchFallback(ctx, c.inner, missTexts)
	}
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed %d texts: %w", len(missTexts), err)
	}
	if len(res.Embeddings) != len(missTexts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"batch embed: got %d vectors for %d texts: %w",
			len(res.Embeddings), len(missTexts), domain.ErrEmbeddingProviderError)
	}

	for j, i := range missIdx {
		out.Embeddings[i] = res.Embeddings[j]
		c.putToCache(ctx, keys[i], res.Embeddings[j])
	}
	out.PromptTokens = res.PromptTokens
	out.TotalTokens = res.TotalTokens
	return out, nil
}

// HealthCheck forwards to the inner embedder; the cache itself has nothing to probe.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.model + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, vec []float32) {
	if domain.IsZeroVector(vec) {
		return
	}
	if err := c.store.Set(ctx, key, vectorToCacheBytes(vec)); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
