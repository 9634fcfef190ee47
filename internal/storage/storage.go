// Package storage persists constitution records and serves the three
// retrieval access paths hybrid search needs: nearest-neighbour search,
// a filtered scan for lexical scoring, and exact article lookup.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kenpo/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// DocumentStore is the persistence seam between search and a backend.
type DocumentStore interface {
	// DenseSearch returns up to limit hits by cosine similarity, best first.
	DenseSearch(ctx context.Context, vector []float32, filter models.Filter, limit int) ([]models.SearchHit, error)
	// Scan returns up to limit records matching filter in a stable order.
	Scan(ctx context.Context, filter models.Filter, limit int) ([]models.Record, error)
	// MatchArticle returns records whose structure.article_number equals articleNumber.
	MatchArticle(ctx context.Context, articleNumber string, filter models.Filter, limit int) ([]models.Record, error)

	// Upsert inserts or replaces records. Each record must carry an embedding.
	Upsert(ctx context.Context, records []models.Record) error
	// DeleteBySource removes every record ingested from source.
	DeleteBySource(ctx context.Context, source string) (int, error)
	// Count returns the number of records matching filter.
	Count(ctx context.Context, filter models.Filter) (int, error)

	Name() string
	Close() error
}

// Matches reports whether m passes filter. Backends that cannot push a
// filter down use it to post-filter.
func Matches(filter models.Filter, m models.Metadata) bool {
	if filter.Country != "" && m.Country != filter.Country {
		return false
	}
	if filter.ExcludeCountry != "" && m.Country == filter.ExcludeCountry {
		return false
	}
	if filter.DocType != "" && m.DocType != filter.DocType {
		return false
	}
	return true
}
