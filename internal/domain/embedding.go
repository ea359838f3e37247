package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single provider call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries vectors in input order plus aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback embeds texts one by one. Used for providers without native batching.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

// IsZeroVector reports whether every component is zero (or the vector is empty).
// Such vectors carry no direction and are skipped by vector search.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// InstructionEmbedder prepends a fixed instruction before embedding.
// Instruction-tuned models expect different prefixes for queries and documents.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder wraps inner; an empty instruction returns inner unchanged.
func NewInstructionEmbedder(inner Embedder, instruction string) Embedder {
	if instruction == "" {
		return inner
	}
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends the instruction and delegates to inner.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return res, nil
}

// BatchEmbed prefixes every text. Inner embedders without batching go one by one.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.instruction + t
	}
	if be, ok := e.inner.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, prefixed)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed: %w", err)
		}
		return res, nil
	}
	res, err := BatchFallback(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed fallback: %w", err)
	}
	return res, nil
}

// HealthCheck forwards to inner when it supports probing.
func (e *InstructionEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
