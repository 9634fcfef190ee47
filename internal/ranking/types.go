// Package ranking analyzes constitution queries and applies structural
// boosts to ranked results.
package ranking

// Strategy is how a query is best served.
type Strategy int

const (
	// StrategyHybrid mixes all signals with no structural hint.
	StrategyHybrid Strategy = iota
	// StrategyConcept targets a known constitutional concept.
	StrategyConcept
	// StrategyExactArticle names one or more articles explicitly.
	StrategyExactArticle
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyHybrid:
		return "hybrid"
	case StrategyConcept:
		return "concept"
	case StrategyExactArticle:
		return "exact_article"
	default:
		return "unknown"
	}
}

// AnalyzedQuery is the structural reading of a constitution query.
type AnalyzedQuery struct {
	// Original is the query as given.
	Original string
	// Optimized has article references and Korean particles stripped. Never empty.
	Optimized        string
	ArticleFilters   []string
	ChapterFilters   []string
	ParagraphFilters []string
	// Concepts are the Korean concept names whose trigger words occur in the query.
	Concepts []string
	Strategy Strategy
}

// HasArticle reports whether n is one of the referenced articles.
func (q *AnalyzedQuery) HasArticle(n string) bool {
	return contains(q.ArticleFilters, n)
}

// HasChapter reports whether n is one of the referenced chapters.
func (q *AnalyzedQuery) HasChapter(n string) bool {
	return contains(q.ChapterFilters, n)
}

func contains(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
