// Package rerank scores query/document pairs with a relevance model and
// reports the outcome explicitly so callers can choose a fallback.
package rerank

import (
	"context"
	"sort"
)

// Score is the relevance of the document at Index in the submitted list.
type Score struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// Reranker scores docs against query and returns up to topK scores sorted
// by Value descending. topK <= 0 means every document.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topK int) ([]Score, error)
}

// Kind classifies a rerank attempt.
type Kind int

const (
	// KindOK means Scores holds the model output.
	KindOK Kind = iota
	// KindSkipped means reranking was disabled or no model is configured.
	KindSkipped
	// KindEmpty means there was nothing to score.
	KindEmpty
	// KindUnavailable means the model failed; Err holds the cause.
	KindUnavailable
)

// String returns the log name of the kind.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindSkipped:
		return "skipped"
	case KindEmpty:
		return "empty"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Outcome is the result of one rerank attempt.
type Outcome struct {
	Kind   Kind
	Scores []Score
	Err    error
}

// Run calls r and classifies the result. It never returns a Go error; a
// failing model yields KindUnavailable.
func Run(ctx context.Context, r Reranker, query string, docs []string, topK int) Outcome {
	if r == nil {
		return Outcome{Kind: KindSkipped}
	}
	if len(docs) == 0 {
		return Outcome{Kind: KindEmpty}
	}
	scores, err := r.Rerank(ctx, query, docs, topK)
	if err != nil {
		return Outcome{Kind: KindUnavailable, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Kind: KindUnavailable, Err: err}
	}
	valid := scores[:0:0]
	for _, s := range scores {
		if s.Index >= 0 && s.Index < len(docs) {
			valid = append(valid, s)
		}
	}
	SortScores(valid)
	return Outcome{Kind: KindOK, Scores: valid}
}

// SortScores orders scores by Value descending, keeping input order on ties.
func SortScores(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Value > scores[j].Value
	})
}

// Truncate returns the first topK scores, or all when topK <= 0.
func Truncate(scores []Score, topK int) []Score {
	if topK > 0 && len(scores) > topK {
		return scores[:topK]
	}
	return scores
}
