package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hyperjump/kenpo/internal/models"
)

type poolEntry struct {
	pool    []models.FusedResult
	expires time.Time
}

// MemoryCache is a process-local PoolCache. Expiry is checked on read and
// expired entries are swept on write.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]poolEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a MemoryCache. A non-positive ttl uses DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]poolEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Put(_ context.Context, searchID string, pool []models.FusedResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, id)
		}
	}
	c.entries[searchID] = poolEntry{pool: clonePool(pool), expires: now.Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, searchID string) ([]models.FusedResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[searchID]
	if !ok {
		return nil, ErrNotFound
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, searchID)
		return nil, ErrNotFound
	}
	return clonePool(e.pool), nil
}

// Len returns the number of stored entries, expired ones included until swept.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) Name() string { return "memory" }

func (c *MemoryCache) Close() error { return nil }
