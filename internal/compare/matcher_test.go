package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/rerank"
)

type failingReranker struct{}

func (failingReranker) Rerank(context.Context, string, []string, int) ([]rerank.Score, error) {
	return nil, errors.New("reranker unavailable")
}

func poolEntry(id, cc, path, article, text string, fusion float64) models.FusedResult {
	return models.FusedResult{
		SearchHit: models.SearchHit{
			ID:   id,
			Text: text,
			Metadata: models.Metadata{
				Country:     cc,
				DisplayPath: path,
				Structure:   models.Structure{ArticleNumber: article},
				EnglishText: text,
			},
		},
		FusionScore: fusion,
	}
}

var dignityAnchor = Anchor{
	ID:   "kr-10",
	Text: "All citizens shall be assured of human worth and dignity",
}

// the dignity articles deliberately carry the lowest fusion scores
func dignityPool() []models.FusedResult {
	return []models.FusedResult{
		poolEntry("fr-tax", "FR", "Article 34", "34", "Parliament may levy taxes by statute", 0.05),
		poolEntry("br-vote", "BR", "Article 14", "14", "Elections occur every four years", 0.04),
		poolEntry("de-court", "DE", "Article 95", "95", "Federal courts hear maritime disputes", 0.03),
		poolEntry("ca-lang", "CA", "Section 16", "16", "Official languages include English plus French", 0.02),
		poolEntry("in-bank", "IN", "Article 246", "246", "Currency issuance belongs to parliament", 0.015),
		poolEntry("gh-15", "GH", "Article 15", "15", "The dignity of all persons shall be inviolable", 0.01),
		poolEntry("us-14", "US", "Amendment XIV", "14", "No State shall deny to any person the equal protection of the laws or human dignity", 0.005),
	}
}

func TestMatcher_DignityScenario(t *testing.T) {
	m := NewMatcher(rerank.NewLexical())
	got := m.Match(context.Background(), []Anchor{dignityAnchor}, dignityPool(), 2, true)

	list := got["kr-10"]
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{"gh-15", "us-14"}, ids)
	for _, r := range list {
		require.NotNil(t, r.ReScore)
		assert.Greater(t, *r.ReScore, 0.0)
	}
	assert.Equal(t, 1.0, list[0].DisplayScore)
}

func TestMatcher_Fallbacks(t *testing.T) {
	ctx := context.Background()

	t.Run("reranker failure keeps fusion order", func(t *testing.T) {
		m := NewMatcher(failingReranker{})
		got := m.Match(ctx, []Anchor{dignityAnchor}, dignityPool(), 3, true)["kr-10"]
		require.Len(t, got, 3)
		assert.Equal(t, "fr-tax", got[0].ID)
		assert.Equal(t, "br-vote", got[1].ID)
		assert.Equal(t, "de-court", got[2].ID)
		assert.Nil(t, got[0].ReScore)
		assert.Equal(t, 1.0, got[0].DisplayScore)
		assert.Equal(t, 0.0, got[2].DisplayScore)
	})

	t.Run("unsorted pool is sorted by fusion score", func(t *testing.T) {
		pool := dignityPool()
		pool[0], pool[6] = pool[6], pool[0]
		got := NewMatcher(nil).MatchOne(ctx, dignityAnchor, pool, 1, true)
		require.Len(t, got, 1)
		assert.Equal(t, "fr-tax", got[0].ID)
	})

	t.Run("pool is not mutated", func(t *testing.T) {
		pool := dignityPool()
		NewMatcher(rerank.NewLexical()).MatchOne(ctx, dignityAnchor, pool, 2, true)
		assert.Equal(t, "fr-tax", pool[0].ID)
		assert.Equal(t, "us-14", pool[6].ID)
	})

	t.Run("empty anchor text or pool", func(t *testing.T) {
		m := NewMatcher(rerank.NewLexical())
		got := m.Match(ctx, []Anchor{{ID: "blank"}, dignityAnchor}, dignityPool(), 2, true)
		assert.Empty(t, got["blank"])
		assert.Len(t, got["kr-10"], 2)

		got = m.Match(ctx, []Anchor{dignityAnchor}, nil, 2, true)
		assert.NotNil(t, got["kr-10"])
		assert.Empty(t, got["kr-10"])
	})

	t.Run("anchors are independent", func(t *testing.T) {
		m := NewMatcher(rerank.NewLexical())
		other := Anchor{ID: "kr-59", Text: "taxes levy statute"}
		got := m.Match(ctx, []Anchor{dignityAnchor, other}, dignityPool(), 1, true)
		assert.Equal(t, "fr-tax", got["kr-59"][0].ID)
		assert.Contains(t, []string{"gh-15", "us-14"}, got["kr-10"][0].ID)
	})
}
