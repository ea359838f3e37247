package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	"github.com/kailas-cloud/sigdex/internal/metrics"
)

// Ingest batching defaults.
const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = 200 * time.Millisecond
)

// BatcherConfig tunes ingest-time embedding.
type BatcherConfig struct {
	Size  int
	Delay time.Duration
}

// Batcher attaches embeddings to signals in small sequential batches.
// Each batch is one provider request when the embedder supports batching.
// Batches are spaced by Delay so bursty collections stay under provider rate limits.
type Batcher struct {
	embedder domain.Embedder
	size     int
	delay    time.Duration
	logger   *zap.Logger
}

// NewBatcher creates a batcher over the document embedder.
func NewBatcher(e domain.Embedder, cfg BatcherConfig, logger *zap.Logger) *Batcher {
	if cfg.Size <= 0 {
		cfg.Size = DefaultBatchSize
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &Batcher{
		embedder: e,
		size:     cfg.Size,
		delay:    cfg.Delay,
		logger:   logger.With(zap.String("component", "embedding_batcher")),
	}
}

// EmbedSignals sets Embedding on every signal in place.
// The first failure aborts the remaining work and is returned.
func (b *Batcher) EmbedSignals(ctx context.Context, signals []signal.Signal) error {
	for start := 0; start < len(signals); start += b.size {
		if start > 0 && b.delay > 0 {
			if err := sleep(ctx, b.delay); err != nil {
				return fmt.Errorf("embed batches: %w", err)
			}
		}
		end := min(start+b.size, len(signals))
		if err := b.embedBatch(ctx, signals[start:end]); err != nil {
			metrics.EmbeddingBatchesTotal.WithLabelValues("error").Inc()
			b.logger.Error("Embedding batch failed",
				zap.Int("offset", start),
				zap.Int("size", end-start),
				zap.Error(err),
			)
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		metrics.EmbeddingBatchesTotal.WithLabelValues("ok").Inc()
	}
	return nil
}

// embedBatch sends the whole batch as one provider request when the chain
// supports it and embeds texts concurrently otherwise.
func (b *Batcher) embedBatch(ctx context.Context, batch []signal.Signal) error {
	be, ok := b.embedder.(domain.BatchEmbedder)
	if !ok {
		return b.embedEach(ctx, batch)
	}

	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text()
	}
	res, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("signals %s..%s: %w", batch[0].ID, batch[len(batch)-1].ID, err)
	}
	if len(res.Embeddings) != len(batch) {
		return fmt.Errorf("%w: got %d embeddings for %d signals",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(batch))
	}
	for i := range batch {
		batch[i].Embedding = res.Embeddings[i]
	}
	return nil
}

func (b *Batcher) embedEach(ctx context.Context, batch []signal.Signal) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range batch {
		s := &batch[i]
		g.Go(func() error {
			res, err := b.embedder.Embed(gctx, s.Text())
			if err != nil {
				return fmt.Errorf("signal %s: %w", s.ID, err)
			}
			s.Embedding = res.Embedding
			return nil
		})
	}
	return g.Wait() //nolint:wrapcheck // errors already carry the signal id
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // caller wraps
	case <-t.C:
		return nil
	}
}
