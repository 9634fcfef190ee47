package models

import (
	"errors"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *SearchQuery
		wantErr bool
	}{
		{"empty query", &SearchQuery{Query: ""}, true},
		{"whitespace query", &SearchQuery{Query: "   "}, true},
		{"valid query", &SearchQuery{Query: "human dignity"}, false},
		{"caps top_k", &SearchQuery{Query: "x", TopK: 500}, false},
		{"negative weight", &SearchQuery{Query: "x", Weights: Weights{Dense: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Errorf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if tt.query.TopK <= 0 || tt.query.TopK > MaxTopK {
				t.Errorf("top_k out of range: %d", tt.query.TopK)
			}
			if tt.query.InitialRetrieve < tt.query.TopK {
				t.Errorf("initial_retrieve %d below top_k %d", tt.query.InitialRetrieve, tt.query.TopK)
			}
			if tt.query.MinResults != DefaultMinResults {
				t.Errorf("expected default min_results, got %d", tt.query.MinResults)
			}
		})
	}
}

func TestSearchQuery_Defaults(t *testing.T) {
	q := &SearchQuery{Query: "dignity", Filter: Filter{Country: " kr "}}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.TopK != DefaultTopK || q.InitialRetrieve != DefaultInitialRetrieve {
		t.Errorf("defaults not applied: %+v", q)
	}
	if q.Weights != DefaultWeights() {
		t.Errorf("weights = %+v", q.Weights)
	}
	if q.Filter.Country != "KR" {
		t.Errorf("country = %q", q.Filter.Country)
	}
	if !q.RerankEnabled() {
		t.Error("reranker should default to enabled")
	}
	off := false
	q.UseReranker = &off
	if q.RerankEnabled() {
		t.Error("explicit false should disable reranker")
	}
}

func TestCompareRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CompareRequest
		wantErr bool
	}{
		{"defaults", CompareRequest{Query: "equality"}, false},
		{"korean too large", CompareRequest{Query: "x", KoreanTopK: 11}, true},
		{"korean negative", CompareRequest{Query: "x", KoreanTopK: -1}, true},
		{"foreign too large", CompareRequest{Query: "x", ForeignTopK: 21}, true},
		{"bounds inclusive", CompareRequest{Query: "x", KoreanTopK: 10, ForeignTopK: 20}, false},
		{"empty query", CompareRequest{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	r := CompareRequest{Query: "equality", TargetCountry: "us"}
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	if r.KoreanTopK != 3 || r.ForeignTopK != 5 || r.PageSize != 5 {
		t.Errorf("unexpected defaults: %+v", r)
	}
	if r.TargetCountry != "US" {
		t.Errorf("target = %q", r.TargetCountry)
	}
	if !r.SummaryEnabled() || !r.RerankEnabled() {
		t.Error("summary and reranker should default to enabled")
	}
}

func TestMatchRequest_Validate(t *testing.T) {
	r := MatchRequest{AnchorText: "dignity", Country: ""}
	if err := r.Validate(); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	r = MatchRequest{AnchorText: "dignity", Country: "gh"}
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	if r.Country != "GH" || r.TopK != DefaultForeignTopK {
		t.Errorf("unexpected %+v", r)
	}
}
