// Package search implements hybrid retrieval over constitution records:
// dense, sparse and exact-article signals fused by reciprocal rank, an
// optional rerank pass and result selection.
package search

import (
	"sort"

	"github.com/hyperjump/kenpo/internal/models"
)

// DefaultRRFK is the reciprocal rank fusion smoothing constant.
const DefaultRRFK = 60

// FuseRRF merges up to three ranked lists into one list ordered by fusion
// score. An entry at 1-based rank r in a list with weight w contributes
// w/(k+r). Weights are renormalized to sum to 1; a non-positive sum falls
// back to dense only. Hits without an id or doc id are dropped. Ties keep
// discovery order: dense, then sparse, then keyword.
func FuseRRF(dense, sparse, keyword []models.SearchHit, w models.Weights, k int) []models.FusedResult {
	if k <= 0 {
		k = DefaultRRFK
	}
	wd, ws, wk := normalizeWeights(w)

	index := make(map[string]int)
	var fused []models.FusedResult

	add := func(hits []models.SearchHit, weight float64, set func(*models.FusedResult, int)) {
		seen := make(map[string]bool, len(hits))
		for i, h := range hits {
			key := h.Key()
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			rank := h.Rank
			if rank <= 0 {
				rank = i + 1
			}
			pos, ok := index[key]
			if !ok {
				pos = len(fused)
				index[key] = pos
				fused = append(fused, models.FusedResult{SearchHit: h})
			}
			fused[pos].FusionScore += weight / float64(k+rank)
			set(&fused[pos], rank)
		}
	}
	add(dense, wd, func(f *models.FusedResult, r int) { f.DenseRank = intPtr(r) })
	add(sparse, ws, func(f *models.FusedResult, r int) { f.SparseRank = intPtr(r) })
	add(keyword, wk, func(f *models.FusedResult, r int) { f.KeywordRank = intPtr(r) })

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].FusionScore > fused[j].FusionScore
	})
	return fused
}

func normalizeWeights(w models.Weights) (dense, sparse, keyword float64) {
	sum := w.Dense + w.Sparse + w.Keyword
	if sum <= 0 {
		return 1, 0, 0
	}
	return w.Dense / sum, w.Sparse / sum, w.Keyword / sum
}

func intPtr(v int) *int { return &v }
