package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hyperjump/kenpo/internal/models"
)

const defaultRedisPrefix = "kenpo:pool:"

// redisClient is the subset of *redis.Client the cache uses.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// RedisConfig configures a RedisCache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// RedisCache shares pools between server instances through Redis. Entries
// are JSON encoded and expire with the key TTL.
type RedisCache struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return newRedisCache(client, cfg.Prefix, cfg.TTL), nil
}

func newRedisCache(client redisClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(searchID string) string {
	return c.prefix + searchID
}

func (c *RedisCache) Put(ctx context.Context, searchID string, pool []models.FusedResult) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("failed to encode pool: %w", err)
	}
	if err := c.client.Set(ctx, c.key(searchID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store pool: %w", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, searchID string) ([]models.FusedResult, error) {
	data, err := c.client.Get(ctx, c.key(searchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}
	var pool []models.FusedResult
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("failed to decode pool: %w", err)
	}
	return pool, nil
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) Close() error { return c.client.Close() }
