package rerank

import (
	"context"
	"math"

	"github.com/hyperjump/kenpo/internal/keyword"
)

// Lexical scores candidates with BM25 fitted over the candidates themselves,
// squashed into (0,1). It needs no model and serves as the offline default.
type Lexical struct{}

// NewLexical returns a lexical reranker.
func NewLexical() *Lexical { return &Lexical{} }

// Listwise marks Lexical scores as comparable only within one call.
func (l *Lexical) Listwise() {}

// Rerank implements Reranker.
func (l *Lexical) Rerank(ctx context.Context, query string, docs []string, topK int) ([]Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bm := keyword.NewBM25()
	bm.Fit(docs)
	scores := make([]Score, len(docs))
	for i := range docs {
		raw := bm.Score(query, i)
		scores[i] = Score{Index: i, Value: 1 - math.Exp(-raw)}
	}
	SortScores(scores)
	return Truncate(scores, topK), nil
}
