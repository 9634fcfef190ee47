package keyword

import (
	"math"
	"testing"
)

func TestBM25_ZeroTerm(t *testing.T) {
	b := NewBM25()
	b.Fit([]string{"human dignity and worth", "freedom of speech", "right to vote"})
	for i := 0; i < b.Len(); i++ {
		if got := b.Score("taxation budget", i); got != 0 {
			t.Errorf("Score(doc %d) = %v, want 0", i, got)
		}
	}
}

func TestBM25_EmptyCorpus(t *testing.T) {
	b := NewBM25()
	b.Fit(nil)
	if got := b.Score("dignity", 0); got != 0 {
		t.Errorf("empty corpus score = %v", got)
	}
	if got := b.ScoreAll("dignity"); len(got) != 0 {
		t.Errorf("ScoreAll on empty corpus = %v", got)
	}
}

func TestBM25_Ranking(t *testing.T) {
	corpus := []string{
		"All citizens shall be assured of human worth and dignity",
		"The President shall be elected by universal suffrage",
		"Dignity of the person is inviolable dignity shall be respected",
	}
	b := NewBM25()
	b.Fit(corpus)
	scores := b.ScoreAll("DIGNITY")
	if scores[1] != 0 {
		t.Errorf("unrelated doc scored %v", scores[1])
	}
	if !(scores[2] > scores[0] && scores[0] > 0) {
		t.Errorf("expected doc 2 > doc 0 > 0, got %v", scores)
	}
}

func TestBM25_IDFNonNegative(t *testing.T) {
	b := NewBM25()
	b.Fit([]string{"a b", "a c", "a d"})
	// "a" appears in every document; the non-negative IDF form still scores it.
	want := math.Log(1 + (3-3+0.5)/(3+0.5))
	if got := b.idf["a"]; math.Abs(got-want) > 1e-12 || got <= 0 {
		t.Errorf("idf(a) = %v, want %v", got, want)
	}
}
