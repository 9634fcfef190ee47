package ranking

import (
	"math"
	"testing"

	"github.com/hyperjump/kenpo/internal/models"
)

func result(id string, fusion float64, meta models.Metadata) models.RerankedResult {
	return models.RerankedResult{
		FusedResult: models.FusedResult{
			SearchHit:   models.SearchHit{ID: id, Metadata: meta},
			FusionScore: fusion,
		},
		Score: fusion,
	}
}

func TestBooster_Amount(t *testing.T) {
	b := NewBooster(nil)
	q := NewQueryAnalyzer().Analyze("제10조 제2장")

	tests := []struct {
		name string
		meta models.Metadata
		want float64
	}{
		{"no match", models.Metadata{}, 0},
		{"article", models.Metadata{Structure: models.Structure{ArticleNumber: "10"}}, 0.5},
		{"article and chapter", models.Metadata{Structure: models.Structure{ArticleNumber: "10", ChapterNumber: "2"}}, 0.8},
		{"main body", models.Metadata{DocumentPart: "main_body"}, 0.1},
		{"preamble", models.Metadata{DocumentPart: "preamble"}, 0.05},
		{"case references", models.Metadata{CaseReferences: []string{"2004헌마554"}}, 0.15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Amount(q, tt.meta); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Amount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBooster_ApplyReorders(t *testing.T) {
	b := NewBooster(nil)
	q := NewQueryAnalyzer().Analyze("제10조")
	results := []models.RerankedResult{
		result("a", 0.03, models.Metadata{Structure: models.Structure{ArticleNumber: "11"}}),
		result("b", 0.02, models.Metadata{Structure: models.Structure{ArticleNumber: "10"}}),
		result("c", 0.01, models.Metadata{Structure: models.Structure{ArticleNumber: "12"}}),
	}
	out := b.Apply(q, results)
	if out[0].ID != "b" {
		t.Fatalf("expected boosted article first, got %s", out[0].ID)
	}
	if out[1].ID != "a" || out[2].ID != "c" {
		t.Errorf("unboosted order changed: %s, %s", out[1].ID, out[2].ID)
	}
	if math.Abs(out[0].Score-0.52) > 1e-9 || out[0].Boost != 0.5 {
		t.Errorf("score = %v boost = %v", out[0].Score, out[0].Boost)
	}
}
