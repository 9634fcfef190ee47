package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/vector"
)

// MemoryStore keeps records and their vectors in process memory. It backs
// tests and small throwaway corpora.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]models.Record
	index   vector.Index
}

// NewMemoryStore creates an empty store for vectors of the given dimension.
func NewMemoryStore(dimensions int) (*MemoryStore, error) {
	idx, err := vector.NewMemoryIndex(dimensions)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{records: make(map[string]models.Record), index: idx}, nil
}

// Name implements DocumentStore.
func (s *MemoryStore) Name() string { return "memory" }

// DenseSearch implements DocumentStore.
func (s *MemoryStore) DenseSearch(ctx context.Context, vec []float32, filter models.Filter, limit int) ([]models.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results, err := s.index.Search(ctx, vec, limit, func(id string) bool {
		r, ok := s.records[id]
		return ok && Matches(filter, r.Metadata)
	})
	if err != nil {
		return nil, err
	}
	hits := make([]models.SearchHit, 0, len(results))
	for i, res := range results {
		r := s.records[res.ID]
		hits = append(hits, r.Hit(res.Score, i+1))
	}
	return hits, nil
}

// Scan implements DocumentStore. Records come back in insertion order.
func (s *MemoryStore) Scan(ctx context.Context, filter models.Filter, limit int) ([]models.Record, error) {
	return s.collect(limit, func(r models.Record) bool { return Matches(filter, r.Metadata) }), nil
}

// MatchArticle implements DocumentStore.
func (s *MemoryStore) MatchArticle(ctx context.Context, articleNumber string, filter models.Filter, limit int) ([]models.Record, error) {
	return s.collect(limit, func(r models.Record) bool {
		return r.Metadata.Structure.ArticleNumber == articleNumber && Matches(filter, r.Metadata)
	}), nil
}

func (s *MemoryStore) collect(limit int, keep func(models.Record) bool) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Record
	for _, id := range s.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		if r := s.records[id]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Upsert implements DocumentStore.
func (s *MemoryStore) Upsert(ctx context.Context, records []models.Record) error {
	ids := make([]string, len(records))
	vecs := make([][]float32, len(records))
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("record %d has no id", i)
		}
		ids[i] = r.ID
		vecs[i] = r.Embedding
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Add(ctx, ids, vecs); err != nil {
		return fmt.Errorf("failed to index vectors: %w", err)
	}
	for _, r := range records {
		if _, ok := s.records[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		s.records[r.ID] = r
	}
	return nil
}

// DeleteBySource implements DocumentStore.
func (s *MemoryStore) DeleteBySource(ctx context.Context, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	kept := s.order[:0]
	for _, id := range s.order {
		if s.records[id].Source == source {
			removed = append(removed, id)
			delete(s.records, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	if err := s.index.Remove(ctx, removed); err != nil {
		return 0, err
	}
	return len(removed), nil
}

// Count implements DocumentStore.
func (s *MemoryStore) Count(ctx context.Context, filter models.Filter) (int, error) {
	return len(s.collect(0, func(r models.Record) bool { return Matches(filter, r.Metadata) })), nil
}

// Close implements DocumentStore.
func (s *MemoryStore) Close() error { return s.index.Close() }
