package search

import (
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/rerank"
)

func fusedList(n int) []models.FusedResult {
	out := make([]models.FusedResult, n)
	for i := range out {
		out[i] = models.FusedResult{
			SearchHit:   models.SearchHit{ID: string(rune('a' + i))},
			FusionScore: float64(n-i) / 100,
		}
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func TestSelect_ThresholdFloor(t *testing.T) {
	pool := models.WithoutRerank(fusedList(10))
	got := Select(pool, 10, ptr(0.99), 3)
	if len(got) != 3 {
		t.Fatalf("expected min_results floor of 3, got %d", len(got))
	}
	for i, id := range []string{"a", "b", "c"} {
		if got[i].ID != id {
			t.Errorf("[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSelect(t *testing.T) {
	pool := models.WithoutRerank(fusedList(10)) // scores 0.10 .. 0.01

	tests := []struct {
		name      string
		topK      int
		threshold *float64
		min       int
		want      int
	}{
		{"top-k mode", 4, nil, 1, 4},
		{"top-k larger than pool", 20, nil, 1, 10},
		{"threshold passes enough", 10, ptr(0.05), 2, 6},
		{"threshold capped at top_k", 3, ptr(0.05), 2, 3},
		{"floor larger than pool", 10, ptr(1), 20, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(pool, tt.topK, tt.threshold, tt.min)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
			for _, r := range got {
				if r.DisplayScore < 0 || r.DisplayScore > 1 {
					t.Errorf("display score out of range: %v", r.DisplayScore)
				}
			}
		})
	}

	if pool[0].DisplayScore != 0 {
		t.Error("Select must not mutate its input")
	}
}

func TestSelect_DisplayScores(t *testing.T) {
	got := Select(models.WithoutRerank(fusedList(3)), 2, nil, 1)
	if got[0].DisplayScore != 1 || math.Abs(got[1].DisplayScore-0.5) > 1e-9 {
		t.Errorf("display = %v, %v", got[0].DisplayScore, got[1].DisplayScore)
	}
}

func TestFallbackFor(t *testing.T) {
	tests := []struct {
		kind rerank.Kind
		want Fallback
	}{
		{rerank.KindOK, UseReranked},
		{rerank.KindSkipped, UseFused},
		{rerank.KindEmpty, UseFused},
		{rerank.KindUnavailable, UseFused},
	}
	for _, tt := range tests {
		if got := FallbackFor(tt.kind); got != tt.want {
			t.Errorf("FallbackFor(%v) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestApplyRerank(t *testing.T) {
	fused := fusedList(5)

	t.Run("scored candidates first then unscored in fused order", func(t *testing.T) {
		outcome := rerank.Outcome{Kind: rerank.KindOK, Scores: []rerank.Score{
			{Index: 2, Value: 0.9},
			{Index: 0, Value: 0.4},
		}}
		got := ApplyRerank(fused, 4, outcome)
		ids := ""
		for _, r := range got {
			ids += r.ID
		}
		if ids != "cabd" {
			t.Errorf("order = %s, want cabd", ids)
		}
		if got[0].ReScore == nil || *got[0].ReScore != 0.9 || got[0].Score != 0.9 {
			t.Errorf("re-score not applied: %+v", got[0])
		}
		if got[2].ReScore != nil || got[2].Score != fused[1].FusionScore {
			t.Errorf("unscored candidate should keep fusion score: %+v", got[2])
		}
	})

	t.Run("failure keeps fused order", func(t *testing.T) {
		got := ApplyRerank(fused, 4, rerank.Outcome{Kind: rerank.KindUnavailable, Err: errors.New("down")})
		if len(got) != 5 || got[0].ID != "a" || got[0].ReScore != nil {
			t.Errorf("got %+v", got)
		}
	})
}
