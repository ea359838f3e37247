package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/domain"
	logpkg "github.com/kailas-cloud/sigdex/internal/logger"
	"github.com/kailas-cloud/sigdex/internal/metrics"
)

// DefaultMaxAPIBatchSize is the largest batch sent in one provider request.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder logs every provider call and splits large batches
// into provider-sized chunks. Request counters live in the provider clients;
// this layer only counts chunks.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	maxBatch int
	logger   *zap.Logger
}

// InstrumentedOption tunes an InstrumentedEmbedder.
type InstrumentedOption func(*InstrumentedEmbedder)

// WithMaxBatch caps the number of texts per provider request. Values < 1 are ignored.
func WithMaxBatch(n int) InstrumentedOption {
	return func(p *InstrumentedEmbedder) {
		if n > 0 {
			p.maxBatch = n
		}
	}
}

// NewInstrumentedEmbedder wraps inner for the named provider and model.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string, logger *zap.Logger, opts ...InstrumentedOption,
) *InstrumentedEmbedder {
	p := &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		maxBatch: DefaultMaxAPIBatchSize,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *InstrumentedEmbedder) log(ctx context.Context) *zap.Logger {
	return logpkg.For(ctx, p.logger).With(
		zap.String("provider", p.provider),
		zap.String("model", p.model),
	)
}

// Embed embeds a single text.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	res, err := p.inner.Embed(ctx, text)
	if err != nil {
		p.log(ctx).Error("Embedding request failed",
			zap.Duration("duration", time.Since(start)),
			zap.Int("text_len", len(text)),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.log(ctx).Debug("Embedding request completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// BatchEmbed embeds texts in chunks of at most maxBatch, preserving order.
// The first failing chunk aborts the whole batch.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}

	for lo := 0; lo < len(texts); lo += p.maxBatch {
		hi := min(lo+p.maxBatch, len(texts))
		res, err := p.embedChunk(ctx, texts[lo:hi])
		metrics.EmbeddingChunksTotal.WithLabelValues(p.provider, chunkStatus(err)).Inc()
		if err != nil {
			p.log(ctx).Error("Embedding chunk failed",
				zap.Int("chunk_start", lo),
				zap.Int("chunk_size", hi-lo),
				zap.Int("batch_size", len(texts)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed [%d:%d]: %w", lo, hi, err)
		}
		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	p.log(ctx).Debug("Batch embedding completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}

// HealthCheck probes the provider when the wrapped client supports it.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := p.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%s health: %w", p.provider, err)
	}
	return nil
}

func (p *InstrumentedEmbedder) embedChunk(ctx context.Context, chunk []string) (domain.BatchEmbeddingResult, error) {
	be, ok := p.inner.(domain.BatchEmbedder)
	if !ok {
		return domain.BatchFallback(ctx, p.inner, chunk)
	}
	res, err := be.BatchEmbed(ctx, chunk)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	if len(res.Embeddings) != len(chunk) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("got %d vectors for %d texts: %w",
			len(res.Embeddings), len(chunk), domain.ErrEmbeddingProviderError)
	}
	return res, nil
}

func chunkStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
