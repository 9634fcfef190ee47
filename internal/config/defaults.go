package config

import (
	"time"

	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/ranking"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kenpo/data/db/articles.db"
	}
	if cfg.Storage.Qdrant.Host == "" {
		cfg.Storage.Qdrant.Host = "localhost"
	}
	if cfg.Storage.Qdrant.Port == 0 {
		cfg.Storage.Qdrant.Port = 6334
	}
	if cfg.Storage.Qdrant.Collection == "" {
		cfg.Storage.Qdrant.Collection = "constitutions"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/kenpo/data/models/multilingual-e5-small.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.CohereModel == "" {
		cfg.Embedding.CohereModel = "embed-multilingual-v3.0"
	}

	if cfg.Reranker.Provider == "" {
		cfg.Reranker.Provider = "lexical"
	}
	if cfg.Reranker.MaxTokens == 0 {
		cfg.Reranker.MaxTokens = 512
	}
	if cfg.Reranker.CohereModel == "" {
		cfg.Reranker.CohereModel = "rerank-multilingual-v3.0"
	}
	if cfg.Reranker.BatchSize == 0 {
		cfg.Reranker.BatchSize = 64
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 10 * time.Minute
	}
	if cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = "localhost:6379"
	}
	if cfg.Cache.RedisPrefix == "" {
		cfg.Cache.RedisPrefix = "kenpo:pool:"
	}

	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = models.DefaultTopK
	}
	if cfg.Search.DefaultInitialRetrieve == 0 {
		cfg.Search.DefaultInitialRetrieve = models.DefaultInitialRetrieve
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = models.MaxTopK
	}
	if cfg.Search.Weights.IsZero() {
		cfg.Search.Weights = models.DefaultWeights()
	}
	if cfg.Search.RRFK == 0 {
		cfg.Search.RRFK = 60
	}
	if cfg.Search.SparseCorpusLimit == 0 {
		cfg.Search.SparseCorpusLimit = 1000
	}
	if cfg.Search.KeywordLimit == 0 {
		cfg.Search.KeywordLimit = 10
	}
	if cfg.Search.RerankFactor == 0 {
		cfg.Search.RerankFactor = 3
	}
	if cfg.Search.MinResults == 0 {
		cfg.Search.MinResults = models.DefaultMinResults
	}
	if cfg.Search.DocType == "" {
		cfg.Search.DocType = "constitution"
	}
	if cfg.Search.Boost == nil {
		cfg.Search.Boost = ranking.DefaultBoostConfig()
	}
	cfg.Search.Boost.ApplyDefaults()

	if cfg.Compare.KoreanCountry == "" {
		cfg.Compare.KoreanCountry = "KR"
	}
	if cfg.Compare.PoolSize == 0 {
		cfg.Compare.PoolSize = 100
	}
	if cfg.Compare.PoolRetrieve == 0 {
		cfg.Compare.PoolRetrieve = 200
	}
	if cfg.Compare.TopKPerAnchor == 0 {
		cfg.Compare.TopKPerAnchor = 50
	}

	if cfg.Summary.BaseURL == "" {
		cfg.Summary.BaseURL = "http://localhost:8000"
	}
	if cfg.Summary.Model == "" {
		cfg.Summary.Model = "gemma-3-4b-it"
	}
	if cfg.Summary.MaxTokens == 0 {
		cfg.Summary.MaxTokens = 200
	}
	if cfg.Summary.Temperature == 0 {
		cfg.Summary.Temperature = 0.3
	}
	if cfg.Summary.Timeout == 0 {
		cfg.Summary.Timeout = 30 * time.Second
	}

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".jsonl"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
