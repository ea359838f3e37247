package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/metrics"
)

const providerName = "gemini"

// Config holds the Gemini embedding settings.
type Config struct {
	APIKey     string
	BaseURL    string // optional override, used by tests and proxies
	Model      string
	Dimensions int
	TaskType   string // e.g. RETRIEVAL_DOCUMENT / RETRIEVAL_QUERY
	Logger     *zap.Logger
}

// Embedder is an embedding provider backed by the Gemini API.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	taskType   string
	logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedding provider.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Embedder{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		taskType:   cfg.TaskType,
		logger:     cfg.Logger,
	}, nil
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

// BatchEmbed implements domain.BatchEmbedder. Gemini does not report token
// usage for embeddings, so token counts stay zero.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: t}}}
	}

	start := time.Now()
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, e.embedConfig())
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "api_error").Inc()
		return domain.BatchEmbeddingResult{}, parseAPIError(err)
	}
	if len(resp.Embeddings) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "count_mismatch").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("gemini: got %d embeddings for %d inputs: %w",
			len(resp.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.model).Observe(duration.Seconds())

	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("gemini: empty embedding at %d: %w",
				i, domain.ErrEmbeddingProviderError)
		}
		out[i] = emb.Values
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

// HealthCheck embeds a short probe string.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	return nil
}

func (e *Embedder) embedConfig() *genai.EmbedContentConfig {
	if e.taskType == "" && e.dimensions <= 0 {
		return nil
	}
	cfg := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimensions > 0 {
		d := int32(e.dimensions) //nolint:gosec // dimensions are validated by config
		cfg.OutputDimensionality = &d
	}
	return cfg
}

// parseAPIError maps SDK errors onto domain sentinels.
func parseAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return fmt.Errorf("gemini API error %d: %s: %w", apiErr.Code, apiErr.Message,
				errors.Join(domain.ErrEmbeddingProviderError, domain.ErrRateLimited))
		}
		return fmt.Errorf("gemini API error %d: %s: %w", apiErr.Code, apiErr.Message, domain.ErrEmbeddingProviderError)
	}
	return fmt.Errorf("gemini request failed: %v: %w", err, domain.ErrEmbeddingProviderError)
}
