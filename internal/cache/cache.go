// Package cache holds comparative search candidate pools between the initial
// comparison and later per-country replay requests.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/kenpo/internal/models"
)

// ErrNotFound is returned when a pool is missing or has expired.
var ErrNotFound = errors.New("pool not found")

// DefaultTTL is how long a pool stays replayable.
const DefaultTTL = 10 * time.Minute

// PoolCache stores a foreign candidate pool under a search id.
type PoolCache interface {
	Put(ctx context.Context, searchID string, pool []models.FusedResult) error
	// Get returns a copy of the pool, or ErrNotFound.
	Get(ctx context.Context, searchID string) ([]models.FusedResult, error)
	Name() string
	Close() error
}

func clonePool(pool []models.FusedResult) []models.FusedResult {
	if pool == nil {
		return nil
	}
	out := make([]models.FusedResult, len(pool))
	copy(out, pool)
	return out
}
