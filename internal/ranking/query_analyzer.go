package ranking

import (
	"regexp"
	"strings"

	"github.com/hyperjump/kenpo/internal/keyword"
)

var (
	chapterRe         = regexp.MustCompile(`제\s*(\d+)\s*장`)
	paragraphNumberRe = regexp.MustCompile(`제\s*(\d+)\s*항`)
	paragraphSymbolRe = regexp.MustCompile(`[①②③④⑤⑥⑦⑧⑨⑩⑪⑫⑬⑭⑮⑯⑰⑱⑲⑳]`)
	articleRefRe      = regexp.MustCompile(`(?i)제\s*\d+\s*조|article\s*\(?\s*\d+\s*\)?`)
	koreanParticleRe  = regexp.MustCompile(`\s+(은|는|이|가|을|를|에|에서|대해|관해|에대해)\s+`)
	multipleSpaceRe   = regexp.MustCompile(`\s+`)
)

// concept is a constitutional concept and the words that signal it.
type concept struct {
	name     string
	triggers []string
}

// Order matters: concepts are reported in this order.
var concepts = []concept{
	{"인간의 존엄", []string{"존엄", "존중", "인권", "인격", "가치", "dignity"}},
	{"평등권", []string{"평등", "차별", "차별금지", "동등", "equality", "discrimination"}},
	{"자유권", []string{"자유", "자유로운", "liberty", "freedom"}},
	{"참정권", []string{"참정", "선거", "투표", "피선거권", "선거권", "suffrage", "vote"}},
	{"청구권", []string{"청구", "소송", "재판", "청원", "petition", "trial"}},
	{"사회권", []string{"사회권", "교육", "근로", "주거", "환경", "education", "labor"}},
	{"신체의 자유", []string{"체포", "구속", "영장", "고문", "arrest", "detention", "torture"}},
	{"언론의 자유", []string{"언론", "출판", "집회", "결사", "speech", "press", "assembly"}},
	{"재산권", []string{"재산", "소유", "재산권", "property"}},
}

// QueryAnalyzer extracts structural references and concepts from queries.
type QueryAnalyzer struct{}

// NewQueryAnalyzer creates a new QueryAnalyzer.
func NewQueryAnalyzer() *QueryAnalyzer {
	return &QueryAnalyzer{}
}

// Analyze parses a query into filters, concepts and a strategy.
func (qa *QueryAnalyzer) Analyze(query string) *AnalyzedQuery {
	result := &AnalyzedQuery{
		Original:         query,
		ArticleFilters:   keyword.ExtractArticleNumbers(query),
		ChapterFilters:   uniqueSubmatches(chapterRe, query),
		ParagraphFilters: uniqueSubmatches(paragraphNumberRe, query),
		Concepts:         []string{},
	}
	result.ParagraphFilters = append(result.ParagraphFilters, paragraphSymbolRe.FindAllString(query, -1)...)

	lower := strings.ToLower(query)
	for _, c := range concepts {
		for _, w := range c.triggers {
			if strings.Contains(lower, w) {
				result.Concepts = append(result.Concepts, c.name)
				break
			}
		}
	}

	switch {
	case len(result.ArticleFilters) > 0:
		result.Strategy = StrategyExactArticle
	case len(result.Concepts) > 0:
		result.Strategy = StrategyConcept
	default:
		result.Strategy = StrategyHybrid
	}

	result.Optimized = qa.optimize(query)
	return result
}

// optimize strips article references and Korean particles. The original
// query is returned when nothing remains.
func (qa *QueryAnalyzer) optimize(query string) string {
	out := articleRefRe.ReplaceAllString(query, " ")
	// particles are matched with surrounding spaces, so pad and run twice for adjacent ones
	out = " " + out + " "
	out = koreanParticleRe.ReplaceAllString(out, " ")
	out = koreanParticleRe.ReplaceAllString(out, " ")
	out = strings.TrimSpace(multipleSpaceRe.ReplaceAllString(out, " "))
	if out == "" {
		return strings.TrimSpace(query)
	}
	return out
}

func uniqueSubmatches(re *regexp.Regexp, s string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}
