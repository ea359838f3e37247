package embedding

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/sigdex/internal/domain"
	logpkg "github.com/kailas-cloud/sigdex/internal/logger"
	"github.com/kailas-cloud/sigdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

// lengthEmbedder returns [len(text)] for every text and one token per text.
type lengthEmbedder struct {
	err        error
	batchErr   error
	short      bool // drop the last vector of every batch
	batchSizes []int
}

func (m *lengthEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}, PromptTokens: 1, TotalTokens: 1}, nil
}

func (m *lengthEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	res, _ := domain.BatchFallback(ctx, m, texts)
	if m.short {
		res.Embeddings = res.Embeddings[:len(res.Embeddings)-1]
	}
	return res, nil
}

// singleEmbedder has no batch endpoint.
type singleEmbedder struct {
	calls int
}

func (m *singleEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}}, nil
}

type probedEmbedder struct {
	singleEmbedder
	err error
}

func (m *probedEmbedder) HealthCheck(context.Context) error { return m.err }

func TestInstrumentedEmbedder_Embed(t *testing.T) {
	p := NewInstrumentedEmbedder(&lengthEmbedder{}, "nebius", "bge-m3", zap.NewNop())

	res, err := p.Embed(context.Background(), "flaky")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 1 || res.Embedding[0] != 5 || res.TotalTokens != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestInstrumentedEmbedder_EmbedErrorLogsContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	providerErr := errors.New("upstream 503")
	p := NewInstrumentedEmbedder(&lengthEmbedder{err: providerErr}, "nebius", "bge-m3", zap.New(core))

	ctx := logpkg.WithFields(context.Background(), zap.String("job_id", "j-1"))
	_, err := p.Embed(ctx, "hello")
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}

	entries := logs.FilterMessage("Embedding request failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["job_id"] != "j-1" || fields["provider"] != "nebius" || fields["model"] != "bge-m3" {
		t.Errorf("unexpected log fields: %v", fields)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Empty(t *testing.T) {
	inner := &lengthEmbedder{}
	p := NewInstrumentedEmbedder(inner, "nebius", "bge-m3", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil || len(inner.batchSizes) != 0 {
		t.Errorf("empty input should not reach the provider: %+v, calls %v", res, inner.batchSizes)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_ChunksInOrder(t *testing.T) {
	inner := &lengthEmbedder{}
	p := NewInstrumentedEmbedder(inner, "chunk-order", "bge-m3", zap.NewNop(), WithMaxBatch(2))

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	res, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := inner.batchSizes; len(got) != 3 || got[0] != 2 || got[1] != 2 || got[2] != 1 {
		t.Errorf("chunk sizes = %v, want [2 2 1]", got)
	}
	for i, vec := range res.Embeddings {
		if int(vec[0]) != len(texts[i]) {
			t.Errorf("embedding %d = %v, want [%d]", i, vec, len(texts[i]))
		}
	}
	if res.TotalTokens != 5 {
		t.Errorf("TotalTokens = %d, want 5", res.TotalTokens)
	}
	if got := testutil.ToFloat64(metrics.EmbeddingChunksTotal.WithLabelValues("chunk-order", "ok")); got != 3 {
		t.Errorf("chunks_total{ok} = %v, want 3", got)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Failures(t *testing.T) {
	tests := []struct {
		name    string
		inner   *lengthEmbedder
		wantErr error
	}{
		{"provider error", &lengthEmbedder{batchErr: domain.ErrRateLimited}, domain.ErrRateLimited},
		{"short reply", &lengthEmbedder{short: true}, domain.ErrEmbeddingProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := "fail-" + strings.ReplaceAll(tt.name, " ", "-")
			p := NewInstrumentedEmbedder(tt.inner, provider, "bge-m3", zap.NewNop(), WithMaxBatch(2))

			_, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(tt.inner.batchSizes) != 1 {
				t.Errorf("first failing chunk should stop the batch, calls = %v", tt.inner.batchSizes)
			}
			if got := testutil.ToFloat64(metrics.EmbeddingChunksTotal.WithLabelValues(provider, "error")); got != 1 {
				t.Errorf("chunks_total{error} = %v, want 1", got)
			}
		})
	}
}

func TestInstrumentedEmbedder_BatchEmbed_FallsBackToSingleCalls(t *testing.T) {
	inner := &singleEmbedder{}
	p := NewInstrumentedEmbedder(inner, "single", "bge-m3", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 || inner.calls != 2 {
		t.Errorf("got %d embeddings from %d calls, want 2/2", len(res.Embeddings), inner.calls)
	}
}

func TestWithMaxBatch_IgnoresNonPositive(t *testing.T) {
	p := NewInstrumentedEmbedder(&singleEmbedder{}, "x", "m", zap.NewNop(), WithMaxBatch(0), WithMaxBatch(-3))
	if p.maxBatch != DefaultMaxAPIBatchSize {
		t.Errorf("maxBatch = %d, want default %d", p.maxBatch, DefaultMaxAPIBatchSize)
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	p := NewInstrumentedEmbedder(&singleEmbedder{}, "plain", "m", zap.NewNop())
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("embedder without probe should be healthy, got %v", err)
	}

	down := &probedEmbedder{err: errors.New("connection refused")}
	p = NewInstrumentedEmbedder(down, "down", "m", zap.NewNop())
	err := p.HealthCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "down health") {
		t.Errorf("expected provider-tagged health error, got %v", err)
	}
}
