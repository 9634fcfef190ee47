// Package vector provides the brute-force cosine index used for dense
// retrieval over locally stored records.
package vector

import "context"

// Index stores vectors by record id and answers filtered nearest-neighbour queries.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int, keep func(id string) bool) ([]Result, error)
	Remove(ctx context.Context, ids []string) error
	Size() int
	Dimensions() int
	Close() error
}

// Result is a single vector search hit.
type Result struct {
	ID    string
	Score float64 // inner product; cosine similarity for normalized vectors
}
