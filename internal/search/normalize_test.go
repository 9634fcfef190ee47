package search

import (
	"math"
	"testing"
)

func TestMinMax(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"empty", nil, []float64{}},
		{"single", []float64{5}, []float64{1}},
		{"constant", []float64{5, 5, 5}, []float64{1, 1, 1}},
		{"spread", []float64{1, 2, 3}, []float64{0, 0.5, 1}},
		{"descending", []float64{0.9, 0.3, 0.6}, []float64{1, 0, 0.5}},
		{"near constant", []float64{1, 1 + 1e-12}, []float64{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinMax(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("[%d] = %v, want %v", i, got[i], tt.want[i])
				}
				if got[i] < 0 || got[i] > 1 {
					t.Errorf("[%d] out of range: %v", i, got[i])
				}
			}
		})
	}
}

func TestClamp01(t *testing.T) {
	if Clamp01(-0.1) != 0 || Clamp01(1.7) != 1 || Clamp01(0.4) != 0.4 {
		t.Error("Clamp01 bounds")
	}
}

func TestSnippet(t *testing.T) {
	if Snippet("short", 10) != "short" {
		t.Error("short string should be unchanged")
	}
	if got := Snippet("인간의 존엄과 가치", 3); got != "인간의..." {
		t.Errorf("got %q", got)
	}
	if Snippet("x", 0) != "x" {
		t.Error("maxRunes 0 should return as-is")
	}
}
