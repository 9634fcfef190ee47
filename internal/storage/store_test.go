package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kenpo/internal/models"
)

func testRecord(id, country, article, source string, vec []float32) models.Record {
	return models.Record{
		ID:    id,
		DocID: "doc-" + country,
		Text:  country + " article " + article,
		Metadata: models.Metadata{
			Country:     country,
			DisplayPath: "Chapter 1 > Article " + article,
			Structure:   models.Structure{ArticleNumber: article},
			DocType:     "constitution",
			Extra:       map[string]any{"custom": "kept"},
		},
		Source:    source,
		Embedding: vec,
	}
}

func seed(t *testing.T, s DocumentStore) {
	t.Helper()
	recs := []models.Record{
		testRecord("kr-10", "KR", "10", "kr.jsonl", []float32{1, 0, 0}),
		testRecord("kr-11", "KR", "11", "kr.jsonl", []float32{0, 1, 0}),
		testRecord("de-1", "DE", "1", "de.jsonl", []float32{0.9, 0.1, 0}),
		testRecord("us-10", "US", "10", "us.jsonl", []float32{0, 0, 1}),
	}
	if err := s.Upsert(context.Background(), recs); err != nil {
		t.Fatal(err)
	}
}

func runStoreContract(t *testing.T, open func(t *testing.T) DocumentStore) {
	ctx := context.Background()

	t.Run("dense search respects filter", func(t *testing.T) {
		s := open(t)
		seed(t, s)
		hits, err := s.DenseSearch(ctx, []float32{1, 0, 0}, models.Filter{}, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 2 || hits[0].ID != "kr-10" || hits[1].ID != "de-1" {
			t.Fatalf("hits = %+v", hits)
		}
		if hits[0].Rank != 1 || hits[1].Rank != 2 {
			t.Errorf("ranks = %d, %d", hits[0].Rank, hits[1].Rank)
		}

		hits, err = s.DenseSearch(ctx, []float32{1, 0, 0}, models.Filter{ExcludeCountry: "KR"}, 10)
		if err != nil {
			t.Fatal(err)
		}
		for _, h := range hits {
			if h.Metadata.Country == "KR" {
				t.Errorf("excluded country returned: %s", h.ID)
			}
		}
		if hits[0].ID != "de-1" {
			t.Errorf("top foreign hit = %s", hits[0].ID)
		}
	})

	t.Run("scan and article match", func(t *testing.T) {
		s := open(t)
		seed(t, s)
		recs, err := s.Scan(ctx, models.Filter{Country: "KR"}, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 2 || recs[0].ID != "kr-10" {
			t.Fatalf("scan = %+v", recs)
		}
		if recs[0].Metadata.Extra["custom"] != "kept" {
			t.Errorf("extra metadata lost: %+v", recs[0].Metadata.Extra)
		}

		limited, _ := s.Scan(ctx, models.Filter{}, 3)
		if len(limited) != 3 {
			t.Errorf("limit ignored: %d", len(limited))
		}

		matched, err := s.MatchArticle(ctx, "10", models.Filter{}, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(matched) != 2 {
			t.Errorf("article 10 matches = %d", len(matched))
		}
		matched, _ = s.MatchArticle(ctx, "10", models.Filter{Country: "US"}, 10)
		if len(matched) != 1 || matched[0].ID != "us-10" {
			t.Errorf("filtered article match = %+v", matched)
		}
	})

	t.Run("upsert replaces and delete by source", func(t *testing.T) {
		s := open(t)
		seed(t, s)
		updated := testRecord("kr-10", "KR", "10", "kr.jsonl", []float32{0, 0, 1})
		updated.Text = "replaced"
		if err := s.Upsert(ctx, []models.Record{updated}); err != nil {
			t.Fatal(err)
		}
		n, _ := s.Count(ctx, models.Filter{})
		if n != 4 {
			t.Errorf("count after replace = %d", n)
		}
		hits, _ := s.DenseSearch(ctx, []float32{0, 0, 1}, models.Filter{Country: "KR"}, 1)
		if len(hits) != 1 || hits[0].Text != "replaced" {
			t.Errorf("replacement not visible: %+v", hits)
		}

		removed, err := s.DeleteBySource(ctx, "kr.jsonl")
		if err != nil {
			t.Fatal(err)
		}
		if removed != 2 {
			t.Errorf("removed = %d", removed)
		}
		n, _ = s.Count(ctx, models.Filter{Country: "KR"})
		if n != 0 {
			t.Errorf("KR count after delete = %d", n)
		}
		hits, _ = s.DenseSearch(ctx, []float32{1, 0, 0}, models.Filter{}, 10)
		for _, h := range hits {
			if h.Metadata.Country == "KR" {
				t.Errorf("deleted record still indexed: %s", h.ID)
			}
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) DocumentStore {
		s, err := NewMemoryStore(3)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) DocumentStore {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "test.db"), 3)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStore_ReloadsVectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	seed(t, s)
	_ = s.Close()

	s, err = NewSQLiteStore(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	hits, err := s.DenseSearch(context.Background(), []float32{0, 0, 1}, models.Filter{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "us-10" {
		t.Errorf("hits after reopen = %+v", hits)
	}
}

func TestSQLiteStore_RejectsWrongDimension(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	err = s.Upsert(context.Background(), []models.Record{testRecord("x", "KR", "1", "", []float32{1})})
	if err == nil {
		t.Error("expected dimension error")
	}
}

func TestMatches(t *testing.T) {
	m := models.Metadata{Country: "KR", DocType: "constitution"}
	tests := []struct {
		name   string
		filter models.Filter
		want   bool
	}{
		{"empty", models.Filter{}, true},
		{"country", models.Filter{Country: "KR"}, true},
		{"other country", models.Filter{Country: "US"}, false},
		{"excluded", models.Filter{ExcludeCountry: "KR"}, false},
		{"doc type", models.Filter{DocType: "constitution"}, true},
		{"other doc type", models.Filter{DocType: "case"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.filter, m); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}
