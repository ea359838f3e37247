package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/sigdex/internal/metrics"
)

// Query vector cache defaults.
const (
	DefaultVectorCacheSize = 1000
	DefaultVectorCacheTTL  = time.Hour
)

// vectorCache memoizes query embeddings in process.
type vectorCache struct {
	embed Embedder
	cache *expirable.LRU[string, []float32]
}

func newVectorCache(e Embedder, size int, ttl time.Duration) *vectorCache {
	if size <= 0 {
		size = DefaultVectorCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultVectorCacheTTL
	}
	return &vectorCache{embed: e, cache: expirable.NewLRU[string, []float32](size, nil, ttl)}
}

func (c *vectorCache) vector(ctx context.Context, query string) ([]float32, error) {
	key := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	if v, ok := c.cache.Get(key); ok {
		metrics.QueryVectorCacheTotal.WithLabelValues("hit").Inc()
		return v, nil
	}
	metrics.QueryVectorCacheTotal.WithLabelValues("miss").Inc()

	res, err := c.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	c.cache.Add(key, append([]float32(nil), res.Embedding...))
	return res.Embedding, nil
}
