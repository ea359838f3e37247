package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/config"
	"github.com/kailas-cloud/sigdex/internal/db"
	dbRedis "github.com/kailas-cloud/sigdex/internal/db/redis"
	"github.com/kailas-cloud/sigdex/internal/domain"
	"github.com/kailas-cloud/sigdex/internal/domain/signal"
	"github.com/kailas-cloud/sigdex/internal/metrics"
	"github.com/kailas-cloud/sigdex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/sigdex/internal/repository/search"
	signalrepo "github.com/kailas-cloud/sigdex/internal/repository/signal"
	"github.com/kailas-cloud/sigdex/internal/transport/gemini"
	"github.com/kailas-cloud/sigdex/internal/transport/github"
	"github.com/kailas-cloud/sigdex/internal/transport/hackernews"
	openaiEmb "github.com/kailas-cloud/sigdex/internal/transport/openai"
	"github.com/kailas-cloud/sigdex/internal/transport/producthunt"
	"github.com/kailas-cloud/sigdex/internal/transport/reddit"
	"github.com/kailas-cloud/sigdex/internal/transport/rerank"
	collectuc "github.com/kailas-cloud/sigdex/internal/usecase/collect"
	embeddinguc "github.com/kailas-cloud/sigdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/sigdex/internal/usecase/health"
	"github.com/kailas-cloud/sigdex/internal/usecase/pipeline"
	searchuc "github.com/kailas-cloud/sigdex/internal/usecase/search"
)

// Gemini task types for asymmetric retrieval.
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// app is the composition root shared by every subcommand.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   db.Store
	signals *signalrepo.Repo
	search  *searchuc.Service
	collect *collectuc.Orchestrator
	runner  *collectuc.Runner
	health  *healthuc.Service
}

// newApp connects to the store and assembles every service.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(ctx, config.Seconds(cfg.Database.ReadinessTimeout)); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))

	// Registered explicitly so tests can use private registries.
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterCollectMetrics()
	metrics.RegisterSearchMetrics()

	docEmbedder, err := buildEmbedder(ctx, cfg, cfg.Embedding.DocumentInstruction, taskRetrievalDocument, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	queryEmbedder, err := buildEmbedder(ctx, cfg, cfg.Embedding.QueryInstruction, taskRetrievalQuery, nil, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	signals := signalrepo.New(store, signalrepo.Config{
		IndexName: cfg.Index.Name,
		Prefix:    cfg.Index.Prefix,
		VectorDim: cfg.Embedding.Dimensions,
		BatchSize: cfg.Index.BatchSize,
		HNSW: signalrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		},
	})
	hits := searchrepo.New(store, cfg.Index.Name, cfg.Index.Prefix)

	// Pass a nil interface (not a typed nil pointer) when rerank is off.
	var reranker domain.Reranker
	var rerankProbe healthuc.RerankChecker
	if cfg.Rerank.Enabled {
		rc := rerank.New(&rerank.Config{
			BaseURL:  cfg.Rerank.BaseURL,
			APIKey:   cfg.Rerank.APIKey,
			Model:    cfg.Rerank.Model,
			ProbeTTL: config.Seconds(cfg.Rerank.ProbeTTLSec),
			Timeout:  config.Seconds(cfg.Rerank.TimeoutSec),
			Logger:   logger.With(zap.String("component", "rerank")),
		})
		reranker, rerankProbe = rc, rc
	}

	searchSvc := searchuc.New(hits, signals, queryEmbedder, reranker, searchuc.Config{
		RerankWindow:    cfg.Rerank.Window,
		VectorCacheSize: cfg.Embedding.CacheSize,
		VectorCacheTTL:  config.Seconds(cfg.Embedding.CacheTTLSec),
	}, logger)

	filter := pipeline.NewFilter(pipeline.FilterConfig{
		MinQuality:    cfg.Filter.MinQuality,
		MaxTags:       cfg.Filter.MaxTags,
		MaxProducts:   cfg.Filter.MaxProducts,
		MaxAge:        time.Duration(cfg.Filter.MaxAgeDays) * 24 * time.Hour,
		SpamThreshold: cfg.Filter.SpamThreshold,
	})
	batcher := embeddinguc.NewBatcher(docEmbedder, embeddinguc.BatcherConfig{
		Size:  cfg.Embedding.BatchSize,
		Delay: config.Millis(cfg.Embedding.BatchDelayMs),
	}, logger)
	enricher := pipeline.NewEnricher(filter, batcher, logger)

	enabled, err := collectuc.ParsePlatforms(cfg.Collect.EnabledPlatforms)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("collect.enabled_platforms: %w", err)
	}
	runner := collectuc.NewRunner(cfg.Collect.Workers, cfg.Collect.QueueSize, logger)
	orch := collectuc.New(
		collectuc.NewQueueState(cfg.Collect.Threshold),
		buildAdapters(cfg.Platforms, logger),
		enricher,
		signals,
		runner,
		collectuc.Config{PlatformLimit: cfg.Collect.PlatformLimit, Enabled: enabled},
		logger,
	)

	healthSvc := healthuc.New(store,
		healthuc.WithEmbedding(newEmbeddingHealthChecker(docEmbedder)),
		healthuc.WithReranker(rerankProbe),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		signals: signals,
		search:  searchSvc,
		collect: orch,
		runner:  runner,
		health:  healthSvc,
	}, nil
}

// close drains background jobs and releases the store.
func (a *app) close(ctx context.Context) {
	if err := a.runner.Close(ctx); err != nil {
		a.logger.Warn("Background jobs did not drain", zap.Error(err))
	}
	a.store.Close()
}

// buildAdapters registers every platform adapter that can run with the given settings.
func buildAdapters(cfg config.PlatformsConfig, logger *zap.Logger) []collectuc.Adapter {
	adapters := []collectuc.Adapter{
		reddit.New(reddit.Config{
			BaseURL:    cfg.Reddit.BaseURL,
			Subreddits: cfg.Reddit.Subreddits,
			Delay:      config.Millis(cfg.Reddit.DelayMs),
			Timeout:    config.Seconds(cfg.Reddit.TimeoutSec),
		}, logger),
		hackernews.New(hackernews.Config{
			BaseURL:        cfg.HackerNews.BaseURL,
			Timeout:        config.Seconds(cfg.HackerNews.TimeoutSec),
			FetchArticles:  cfg.HackerNews.FetchArticles,
			MaxArticles:    cfg.HackerNews.MaxArticles,
			ArticleTimeout: config.Seconds(cfg.HackerNews.ArticleTimeoutSec),
		}, logger),
		github.New(github.Config{
			BaseURL: cfg.GitHub.BaseURL,
			Token:   cfg.GitHub.Token,
			Delay:   config.Millis(cfg.GitHub.DelayMs),
			Timeout: config.Seconds(cfg.GitHub.TimeoutSec),
		}, logger),
	}

	ph := producthunt.New(producthunt.Config{
		BaseURL: cfg.ProductHunt.BaseURL,
		Token:   cfg.ProductHunt.Token,
		Timeout: config.Seconds(cfg.ProductHunt.TimeoutSec),
	}, logger)
	if ph.Enabled() {
		adapters = append(adapters, ph)
	} else {
		logger.Info("Product Hunt adapter disabled: no token", zap.String("platform", string(signal.PlatformProductHunt)))
	}
	return adapters
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented -> Instruction.
// A nil store skips the persistent cache; query vectors are cached in memory by the retriever.
func buildEmbedder(
	ctx context.Context,
	cfg config.Config,
	instruction, taskType string,
	store db.KVStore,
	logger *zap.Logger,
) (domain.Embedder, error) {
	provName := cfg.Embedding.Provider
	provCfg := cfg.Embedding.Providers[provName]
	model := cfg.Embedding.Model

	var base domain.Embedder
	switch provCfg.Type {
	case config.ProviderGemini:
		g, err := gemini.NewEmbedder(ctx, &gemini.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Model:      model,
			Dimensions: cfg.Embedding.Dimensions,
			TaskType:   taskType,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		base = g
	default:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Model:      model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   provName,
			Logger:     logger,
		})
	}

	embedder := base
	if store != nil && cfg.Embedding.StoreCache {
		embedder = embcache.New(base, store, model, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, provName, model, logger,
		embeddinguc.WithMaxBatch(cfg.Embedding.MaxRequestBatch))

	// Instruction prefix is outermost so the cache key includes it.
	return domain.NewInstructionEmbedder(embedder, instruction), nil
}
