package ranking

import (
	"sort"

	"github.com/hyperjump/kenpo/internal/models"
)

// Booster adds structural bonuses to ranked constitution results.
type Booster struct {
	config *BoostConfig
}

// NewBooster creates a Booster. A nil config uses the defaults.
func NewBooster(config *BoostConfig) *Booster {
	if config == nil {
		config = DefaultBoostConfig()
	}
	config.ApplyDefaults()
	return &Booster{config: config}
}

// Amount returns the bonus for one metadata record under the analyzed query.
func (b *Booster) Amount(q *AnalyzedQuery, m models.Metadata) float64 {
	var boost float64
	if q != nil && q.HasArticle(m.Structure.ArticleNumber) {
		boost += b.config.ArticleMatch
	}
	if q != nil && q.HasChapter(m.Structure.ChapterNumber) {
		boost += b.config.ChapterMatch
	}
	switch m.DocumentPart {
	case "main_body":
		boost += b.config.MainBody
	case "preamble":
		boost += b.config.Preamble
	}
	if len(m.CaseReferences) > 0 {
		boost += b.config.CaseReferences
	}
	return boost
}

// Apply sets Boost and Score (best score plus boost) on every result and
// stable-sorts by the boosted score. The input slice is reordered in place.
func (b *Booster) Apply(q *AnalyzedQuery, results []models.RerankedResult) []models.RerankedResult {
	for i := range results {
		results[i].Boost = b.Amount(q, results[i].Metadata)
		results[i].Score = results[i].BestScore() + results[i].Boost
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
