// Package config provides configuration loading and structs for the kenpo server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/ranking"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Reranker  RerankerConfig  `yaml:"reranker"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Compare   CompareConfig   `yaml:"compare"`
	Summary   SummaryConfig   `yaml:"summary"`
	Watch     WatchConfig     `yaml:"watch"`
}

// WatchConfig holds corpus directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects and configures the document store.
type StorageConfig struct {
	Backend      string       `yaml:"backend"` // sqlite | qdrant
	DatabasePath string       `yaml:"database_path"`
	Qdrant       QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds the remote vector database connection.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider        string `yaml:"provider"` // onnx | cohere | mock
	ModelPath       string `yaml:"model_path"`
	Dimensions      int    `yaml:"dimensions"`
	MaxTokens       int    `yaml:"max_tokens"`
	UseQuantization bool   `yaml:"use_quantization"`
	CacheSize       int    `yaml:"cache_size"`
	CohereModel     string `yaml:"cohere_model"`
	CohereAPIKey    string `yaml:"cohere_api_key"`
}

// RerankerConfig holds cross-encoder settings.
type RerankerConfig struct {
	Provider     string `yaml:"provider"` // onnx | cohere | lexical | none
	ModelPath    string `yaml:"model_path"`
	MaxTokens    int    `yaml:"max_tokens"`
	CohereModel  string `yaml:"cohere_model"`
	CohereAPIKey string `yaml:"cohere_api_key"`
	BatchSize    int    `yaml:"batch_size"`
}

// CacheConfig selects the comparative search pool cache.
type CacheConfig struct {
	Backend       string        `yaml:"backend"` // memory | redis
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisPrefix   string        `yaml:"redis_prefix"`
}

// SearchConfig holds hybrid search defaults and limits.
type SearchConfig struct {
	DefaultTopK            int                  `yaml:"default_top_k"`
	DefaultInitialRetrieve int                  `yaml:"default_initial_retrieve"`
	MaxTopK                int                  `yaml:"max_top_k"`
	Weights                models.Weights       `yaml:"weights"`
	RRFK                   int                  `yaml:"rrf_k"`
	SparseCorpusLimit      int                  `yaml:"sparse_corpus_limit"`
	KeywordLimit           int                  `yaml:"keyword_limit"`
	RerankFactor           int                  `yaml:"rerank_factor"`
	MinResults             int                  `yaml:"min_results"`
	DocType                string               `yaml:"doc_type"`
	Boost                  *ranking.BoostConfig `yaml:"boost"`
}

// CompareConfig holds comparative search settings.
type CompareConfig struct {
	KoreanCountry string `yaml:"korean_country"`
	PoolSize      int    `yaml:"pool_size"`
	PoolRetrieve  int    `yaml:"pool_retrieve"`
	TopKPerAnchor int    `yaml:"top_k_per_anchor"`
	DisableDedupe bool   `yaml:"disable_dedupe"`
}

// SummaryConfig holds the completion endpoint used for comparison summaries.
type SummaryConfig struct {
	Enabled     *bool         `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// EnabledOrDefault returns whether summaries are generated; defaults to true.
func (s *SummaryConfig) EnabledOrDefault() bool {
	if s.Enabled != nil {
		return *s.Enabled
	}
	return true
}

// Load reads and parses the config file at path, overlays .env and
// environment variables, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Reranker.ModelPath = expandPath(cfg.Reranker.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// envOverrides are the settings that may come from the environment or a .env file.
type envOverrides struct {
	Debug         *bool  `env:"KENPO_DEBUG"`
	CohereAPIKey  string `env:"COHERE_API_KEY"`
	QdrantHost    string `env:"QDRANT_HOST"`
	QdrantPort    int    `env:"QDRANT_PORT"`
	QdrantAPIKey  string `env:"QDRANT_API_KEY"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	VLLMBaseURL   string `env:"VLLM_BASE_URL"`
}

// ApplyEnv loads a .env file from the working directory when present and
// overrides secrets and endpoints from the environment. Unset variables
// leave the file values alone.
func ApplyEnv(cfg *Config) error {
	_ = godotenv.Load()

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	if o.Debug != nil {
		cfg.Debug = *o.Debug
	}
	if o.CohereAPIKey != "" {
		cfg.Embedding.CohereAPIKey = o.CohereAPIKey
		cfg.Reranker.CohereAPIKey = o.CohereAPIKey
	}
	if o.QdrantHost != "" {
		cfg.Storage.Qdrant.Host = o.QdrantHost
	}
	if o.QdrantPort != 0 {
		cfg.Storage.Qdrant.Port = o.QdrantPort
	}
	if o.QdrantAPIKey != "" {
		cfg.Storage.Qdrant.APIKey = o.QdrantAPIKey
	}
	if o.RedisAddr != "" {
		cfg.Cache.RedisAddr = o.RedisAddr
	}
	if o.RedisPassword != "" {
		cfg.Cache.RedisPassword = o.RedisPassword
	}
	if o.VLLMBaseURL != "" {
		cfg.Summary.BaseURL = o.VLLMBaseURL
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
