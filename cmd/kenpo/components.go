package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/kenpo/internal/cache"
	"github.com/hyperjump/kenpo/internal/compare"
	"github.com/hyperjump/kenpo/internal/config"
	"github.com/hyperjump/kenpo/internal/embedding"
	"github.com/hyperjump/kenpo/internal/indexer"
	"github.com/hyperjump/kenpo/internal/llm"
	"github.com/hyperjump/kenpo/internal/rerank"
	"github.com/hyperjump/kenpo/internal/search"
	"github.com/hyperjump/kenpo/internal/storage"
)

// Components holds initialized services.
type Components struct {
	Store    storage.DocumentStore
	Embedder embedding.Embedder
	Reranker rerank.Reranker
	Pools    cache.PoolCache
	Engine   *search.Engine
	Compare  *compare.Service
	Indexer  *indexer.Indexer

	closers []func() error
}

// Close releases every backend in reverse construction order.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	c := &Components{}

	embedder, err := newEmbedder(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	c.closers = append(c.closers, c.Embedder.Close)

	store, err := newStore(ctx, cfg, c.Embedder.Dimensions())
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Store = store
	c.closers = append(c.closers, store.Close)

	reranker, closeReranker, err := newReranker(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Reranker = reranker
	if closeReranker != nil {
		c.closers = append(c.closers, closeReranker)
	}

	pools, err := newPoolCache(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize pool cache: %w", err)
	}
	c.Pools = pools
	c.closers = append(c.closers, pools.Close)

	c.Engine = search.NewEngine(c.Store, c.Embedder, c.Reranker, &cfg.Search, search.WithLogger(logger))

	serviceOpts := []compare.ServiceOption{
		compare.WithServiceLogger(logger),
		compare.WithDocType(cfg.Search.DocType),
	}
	if cfg.Summary.EnabledOrDefault() {
		client, err := llm.NewCompletionClient(llm.Config{
			BaseURL:     cfg.Summary.BaseURL,
			Model:       cfg.Summary.Model,
			MaxTokens:   cfg.Summary.MaxTokens,
			Temperature: cfg.Summary.Temperature,
			Timeout:     cfg.Summary.Timeout,
		})
		if err != nil {
			logger.Warn("summary disabled", zap.Error(err))
		} else {
			serviceOpts = append(serviceOpts, compare.WithSummarizer(compare.NewSummarizer(client, logger)))
		}
	}
	matcher := compare.NewMatcher(c.Reranker, compare.WithMatcherLogger(logger))
	c.Compare = compare.NewService(c.Engine, matcher, c.Pools, cfg.Compare, serviceOpts...)

	idxOpts := []indexer.IndexerOption{indexer.WithExtensions(cfg.Watch.Extensions)}
	if debug {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	c.Indexer = indexer.NewIndexer(c.Store, c.Embedder, idxOpts...)

	logger.Info("components initialized",
		zap.String("store", c.Store.Name()),
		zap.String("embedding", cfg.Embedding.Provider),
		zap.String("reranker", cfg.Reranker.Provider),
		zap.String("cache", c.Pools.Name()),
	)
	return c, nil
}

// newEmbedder falls back to the hashing embedder when the ONNX model cannot
// be loaded, so the CLI stays usable without the runtime installed.
func newEmbedder(cfg *config.Config, logger *zap.Logger) (embedding.Embedder, error) {
	ec := cfg.Embedding
	switch ec.Provider {
	case "onnx":
		e, err := embedding.NewONNXEmbedder(ec.ModelPath, ec.Dimensions, ec.MaxTokens)
		if err != nil {
			logger.Warn("onnx embedder unavailable, using hash embedder",
				zap.String("model_path", ec.ModelPath), zap.Error(err))
			return embedding.NewHashEmbedder(ec.Dimensions), nil
		}
		return e, nil
	case "cohere":
		e, err := embedding.NewCohereEmbedder(ec.CohereAPIKey, ec.CohereModel, ec.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cohere embedder: %w", err)
		}
		return e, nil
	case "mock", "hash":
		return embedding.NewHashEmbedder(ec.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", ec.Provider)
	}
}

func newStore(ctx context.Context, cfg *config.Config, dimensions int) (storage.DocumentStore, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		if dir := filepath.Dir(cfg.Storage.DatabasePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return storage.NewSQLiteStore(cfg.Storage.DatabasePath, dimensions)
	case "qdrant":
		q := cfg.Storage.Qdrant
		return storage.NewQdrantStore(ctx, storage.QdrantConfig{
			Host:       q.Host,
			Port:       q.Port,
			APIKey:     q.APIKey,
			UseTLS:     q.UseTLS,
			Collection: q.Collection,
			Dimensions: dimensions,
		})
	case "memory":
		return storage.NewMemoryStore(dimensions)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newReranker returns a nil Reranker for provider "none". The returned close
// func is nil when the backend holds no resources.
func newReranker(cfg *config.Config, logger *zap.Logger) (rerank.Reranker, func() error, error) {
	rc := cfg.Reranker
	switch rc.Provider {
	case "onnx":
		r, err := rerank.NewONNXReranker(rc.ModelPath, rc.MaxTokens)
		if err != nil {
			logger.Warn("onnx reranker unavailable, using lexical reranker",
				zap.String("model_path", rc.ModelPath), zap.Error(err))
			return rerank.NewLexical(), nil, nil
		}
		return rerank.NewBatched(r, rc.BatchSize), r.Close, nil
	case "cohere":
		r, err := rerank.NewCohereReranker(rc.CohereAPIKey, rc.CohereModel)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize cohere reranker: %w", err)
		}
		return rerank.NewBatched(r, rc.BatchSize), nil, nil
	case "lexical":
		return rerank.NewLexical(), nil, nil
	case "none":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown reranker provider %q", rc.Provider)
	}
}

func newPoolCache(ctx context.Context, cfg *config.Config) (cache.PoolCache, error) {
	cc := cfg.Cache
	switch cc.Backend {
	case "memory":
		return cache.NewMemoryCache(cc.TTL), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
			Prefix:   cc.RedisPrefix,
			TTL:      cc.TTL,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cc.Backend)
	}
}
