package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = append(s.got, text)
	return s.result, s.err
}

func TestInstructionEmbedder_Prefix(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	emb := NewInstructionEmbedder(inner, "query: ")

	res, err := emb.Embed(context.Background(), "billing pain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got[0] != "query: billing pain" {
		t.Errorf("expected prefixed text, got %q", inner.got[0])
	}
	if len(res.Embedding) != 2 {
		t.Errorf("expected 2-element vector, got %d", len(res.Embedding))
	}
}

func TestNewInstructionEmbedder_EmptyReturnsInner(t *testing.T) {
	inner := &stubEmbedder{}
	if got := NewInstructionEmbedder(inner, ""); got != Embedder(inner) {
		t.Error("expected inner embedder for empty instruction")
	}
}

func TestInstructionEmbedder_BatchFallback(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1}, PromptTokens: 2, TotalTokens: 3}}
	emb := NewInstructionEmbedder(inner, "doc: ").(*InstructionEmbedder)

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 || res.TotalTokens != 6 {
		t.Errorf("unexpected result: %+v", res)
	}
	if inner.got[1] != "doc: b" {
		t.Errorf("expected prefixed second text, got %q", inner.got[1])
	}
}

func TestBatchFallback_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	_, err := BatchFallback(context.Background(), &stubEmbedder{err: innerErr}, []string{"x"})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestIsZeroVector(t *testing.T) {
	if !IsZeroVector(nil) || !IsZeroVector([]float32{0, 0}) {
		t.Error("expected zero vector")
	}
	if IsZeroVector([]float32{0, 0.01}) {
		t.Error("expected non-zero vector")
	}
}

type probingEmbedder struct {
	stubEmbedder
	probeErr error
	probed   int
}

func (p *probingEmbedder) HealthCheck(_ context.Context) error {
	p.probed++
	return p.probeErr
}

func TestInstructionEmbedder_HealthCheckForwards(t *testing.T) {
	down := errors.New("provider down")
	inner := &probingEmbedder{probeErr: down}
	emb := NewInstructionEmbedder(inner, "query: ").(*InstructionEmbedder)

	if err := emb.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected probe error, got %v", err)
	}
	if inner.probed != 1 {
		t.Errorf("expected one probe, got %d", inner.probed)
	}

	plain := NewInstructionEmbedder(&stubEmbedder{}, "query: ").(*InstructionEmbedder)
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil for inner without probe, got %v", err)
	}
}
