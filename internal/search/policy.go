package search

import (
	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/rerank"
)

// Fallback names the list a caller keeps after a rerank attempt.
type Fallback int

const (
	// UseReranked keeps the reranked candidates.
	UseReranked Fallback = iota
	// UseFused keeps the fused order untouched.
	UseFused
)

// FallbackFor maps a rerank outcome to the list to keep.
func FallbackFor(kind rerank.Kind) Fallback {
	if kind == rerank.KindOK {
		return UseReranked
	}
	return UseFused
}

// ApplyRerank builds the result list from the first n fused entries and a
// rerank outcome. Scored candidates come first in score order; candidates
// the model did not score follow in fused order. Any outcome other than
// KindOK returns the whole fused list with fusion scores.
func ApplyRerank(fused []models.FusedResult, n int, outcome rerank.Outcome) []models.RerankedResult {
	if FallbackFor(outcome.Kind) == UseFused {
		return models.WithoutRerank(fused)
	}
	if n > len(fused) {
		n = len(fused)
	}
	cands := fused[:n]
	scored := make([]bool, n)
	out := make([]models.RerankedResult, 0, n)
	for _, s := range outcome.Scores {
		if s.Index < 0 || s.Index >= n || scored[s.Index] {
			continue
		}
		scored[s.Index] = true
		v := s.Value
		out = append(out, models.RerankedResult{FusedResult: cands[s.Index], ReScore: &v, Score: v})
	}
	for i, c := range cands {
		if !scored[i] {
			out = append(out, models.RerankedResult{FusedResult: c, Score: c.FusionScore})
		}
	}
	return out
}

// Select applies the final selection policy. Without a threshold it keeps
// the first topK results. With a threshold it keeps results whose best
// score reaches it; when fewer than minResults pass, the first minResults
// of the unfiltered list are kept instead. Display scores are min-max
// normalized over the selected list before the topK cap.
func Select(results []models.RerankedResult, topK int, threshold *float64, minResults int) []models.RerankedResult {
	selected := results
	if threshold != nil {
		passed := make([]models.RerankedResult, 0, len(results))
		for _, r := range results {
			if r.BestScore() >= *threshold {
				passed = append(passed, r)
			}
		}
		if len(passed) >= minResults {
			selected = passed
		} else {
			selected = results[:min(minResults, len(results))]
		}
	}
	selected = AssignDisplayScores(selected)
	if topK > 0 && len(selected) > topK {
		selected = selected[:topK]
	}
	return selected
}

// AssignDisplayScores returns a copy of results with DisplayScore set to the
// min-max normalized Score.
func AssignDisplayScores(results []models.RerankedResult) []models.RerankedResult {
	out := make([]models.RerankedResult, len(results))
	copy(out, results)
	scores := make([]float64, len(out))
	for i, r := range out {
		scores[i] = r.Score
	}
	for i, d := range MinMax(scores) {
		out[i].DisplayScore = d
	}
	return out
}
