package models

// SearchHit is one result from one retrieval signal.
type SearchHit struct {
	ID       string   `json:"id"`
	DocID    string   `json:"doc_id,omitempty"`
	Text     string   `json:"text"`
	RawScore float64  `json:"raw_score"`
	Rank     int      `json:"rank"`
	Metadata Metadata `json:"metadata"`
}

// Key returns the identity used to merge the same chunk across signals.
func (h SearchHit) Key() string {
	if h.ID != "" {
		return h.ID
	}
	return h.DocID
}

// FusedResult is a hit with its accumulated reciprocal-rank score. Rank
// fields are nil when the signal did not surface the hit.
type FusedResult struct {
	SearchHit
	FusionScore float64 `json:"fusion_score"`
	DenseRank   *int    `json:"dense_rank"`
	SparseRank  *int    `json:"sparse_rank"`
	KeywordRank *int    `json:"keyword_rank"`
}

// RerankedResult is a fused result after optional cross-encoder scoring.
type RerankedResult struct {
	FusedResult
	ReScore      *float64 `json:"re_score,omitempty"`
	Score        float64  `json:"score"`
	DisplayScore float64  `json:"display_score"`
	Boost        float64  `json:"boost,omitempty"`
}

// BestScore is the re-score when present, otherwise the fusion score.
func (r RerankedResult) BestScore() float64 {
	if r.ReScore != nil {
		return *r.ReScore
	}
	return r.FusionScore
}

// WithoutRerank drops the cross-encoder score, keeping fusion data.
func WithoutRerank(fused []FusedResult) []RerankedResult {
	out := make([]RerankedResult, len(fused))
	for i, f := range fused {
		out[i] = RerankedResult{FusedResult: f, Score: f.FusionScore}
	}
	return out
}
