package rerank

import "context"

// Listwise is implemented by rerankers whose scores depend on the whole
// candidate list, such as Lexical fitting BM25 over it. Batched never splits
// their input.
type Listwise interface {
	Listwise()
}

// Batched splits large candidate lists into fixed-size batches. Lists up to
// twice the batch size go to the inner reranker in one call.
type Batched struct {
	inner     Reranker
	batchSize int
}

// NewBatched wraps inner. A non-positive batchSize defaults to 64.
func NewBatched(inner Reranker, batchSize int) *Batched {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Batched{inner: inner, batchSize: batchSize}
}

// Rerank implements Reranker.
func (b *Batched) Rerank(ctx context.Context, query string, docs []string, topK int) ([]Score, error) {
	if _, ok := b.inner.(Listwise); ok || len(docs) <= b.batchSize*2 {
		return b.inner.Rerank(ctx, query, docs, topK)
	}
	all := make([]Score, 0, len(docs))
	for start := 0; start < len(docs); start += b.batchSize {
		end := start + b.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		scores, err := b.inner.Rerank(ctx, query, docs[start:end], 0)
		if err != nil {
			return nil, err
		}
		for _, s := range scores {
			all = append(all, Score{Index: start + s.Index, Value: s.Value})
		}
	}
	SortScores(all)
	return Truncate(all, topK), nil
}
