package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest is returned when a search or compare request fails validation.
var ErrInvalidRequest = errors.New("invalid request")

// Search request defaults and limits.
const (
	DefaultTopK            = 10
	DefaultInitialRetrieve = 50
	DefaultMinResults      = 1
	MaxTopK                = 100
	MaxInitialRetrieve     = 500

	DefaultKoreanTopK  = 3
	MaxKoreanTopK      = 10
	DefaultForeignTopK = 5
	MaxForeignTopK     = 20
)

// Weights are the relative contributions of the three retrieval signals.
type Weights struct {
	Dense   float64 `json:"dense" yaml:"dense"`
	Sparse  float64 `json:"sparse" yaml:"sparse"`
	Keyword float64 `json:"keyword" yaml:"keyword"`
}

// DefaultWeights favours dense retrieval.
func DefaultWeights() Weights {
	return Weights{Dense: 0.5, Sparse: 0.3, Keyword: 0.2}
}

// IsZero reports whether no weight was supplied.
func (w Weights) IsZero() bool {
	return w.Dense == 0 && w.Sparse == 0 && w.Keyword == 0
}

// Filter restricts retrieval by structured metadata.
type Filter struct {
	Country        string `json:"country,omitempty"`
	ExcludeCountry string `json:"exclude_country,omitempty"`
	DocType        string `json:"doc_type,omitempty"`
}

// SearchQuery is one hybrid search request.
type SearchQuery struct {
	Query           string   `json:"query"`
	TopK            int      `json:"top_k,omitempty"`
	InitialRetrieve int      `json:"initial_retrieve,omitempty"`
	Filter          Filter   `json:"filter"`
	Weights         Weights  `json:"weights"`
	UseReranker     *bool    `json:"use_reranker,omitempty"`
	ScoreThreshold  *float64 `json:"score_threshold,omitempty"`
	MinResults      int      `json:"min_results,omitempty"`
	Boost           bool     `json:"boost,omitempty"`
}

// RerankEnabled defaults to true when the caller did not say.
func (q *SearchQuery) RerankEnabled() bool {
	return q.UseReranker == nil || *q.UseReranker
}

// Validate normalizes the query in place and fills defaults.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidRequest)
	}
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}
	if q.TopK > MaxTopK {
		q.TopK = MaxTopK
	}
	if q.InitialRetrieve <= 0 {
		q.InitialRetrieve = DefaultInitialRetrieve
	}
	if q.InitialRetrieve < q.TopK {
		q.InitialRetrieve = q.TopK
	}
	if q.InitialRetrieve > MaxInitialRetrieve {
		q.InitialRetrieve = MaxInitialRetrieve
	}
	if q.Weights.Dense < 0 || q.Weights.Sparse < 0 || q.Weights.Keyword < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidRequest)
	}
	if q.Weights.IsZero() {
		q.Weights = DefaultWeights()
	}
	if q.MinResults <= 0 {
		q.MinResults = DefaultMinResults
	}
	q.Filter.Country = strings.ToUpper(strings.TrimSpace(q.Filter.Country))
	q.Filter.ExcludeCountry = strings.ToUpper(strings.TrimSpace(q.Filter.ExcludeCountry))
	return nil
}

// CompareRequest is one comparative search across Korea and foreign countries.
type CompareRequest struct {
	Query           string         `json:"query"`
	KoreanTopK      int            `json:"korean_top_k,omitempty"`
	ForeignTopK     int            `json:"foreign_top_k,omitempty"`
	TargetCountry   string         `json:"target_country,omitempty"`
	PageSize        int            `json:"page_size,omitempty"`
	Cursors         map[string]int `json:"cursors,omitempty"`
	GenerateSummary *bool          `json:"generate_summary,omitempty"`
	UseReranker     *bool          `json:"use_reranker,omitempty"`
}

// SummaryEnabled defaults to true.
func (r *CompareRequest) SummaryEnabled() bool {
	return r.GenerateSummary == nil || *r.GenerateSummary
}

// RerankEnabled defaults to true.
func (r *CompareRequest) RerankEnabled() bool {
	return r.UseReranker == nil || *r.UseReranker
}

// Validate checks bounds and fills defaults.
func (r *CompareRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidRequest)
	}
	if r.KoreanTopK == 0 {
		r.KoreanTopK = DefaultKoreanTopK
	}
	if r.KoreanTopK < 1 || r.KoreanTopK > MaxKoreanTopK {
		return fmt.Errorf("%w: korean_top_k must be between 1 and %d", ErrInvalidRequest, MaxKoreanTopK)
	}
	if r.ForeignTopK == 0 {
		r.ForeignTopK = DefaultForeignTopK
	}
	if r.ForeignTopK < 1 || r.ForeignTopK > MaxForeignTopK {
		return fmt.Errorf("%w: foreign_top_k must be between 1 and %d", ErrInvalidRequest, MaxForeignTopK)
	}
	if r.PageSize <= 0 {
		r.PageSize = r.ForeignTopK
	}
	r.TargetCountry = strings.ToUpper(strings.TrimSpace(r.TargetCountry))
	return nil
}

// MatchRequest replays a cached foreign pool against one anchor for one country.
type MatchRequest struct {
	AnchorText string `json:"anchor_text"`
	Country    string `json:"country"`
	TopK       int    `json:"top_k,omitempty"`
	Cursor     int    `json:"cursor,omitempty"`
}

// Validate checks required fields and fills defaults.
func (r *MatchRequest) Validate() error {
	r.AnchorText = strings.TrimSpace(r.AnchorText)
	r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
	if r.Country == "" {
		return fmt.Errorf("%w: country is required", ErrInvalidRequest)
	}
	if r.TopK <= 0 {
		r.TopK = DefaultForeignTopK
	}
	if r.TopK > MaxTopK {
		r.TopK = MaxTopK
	}
	return nil
}
