package ranking

import (
	"reflect"
	"testing"
)

func TestQueryAnalyzer_Analyze(t *testing.T) {
	qa := NewQueryAnalyzer()

	tests := []struct {
		name          string
		query         string
		wantArticles  []string
		wantChapters  []string
		wantParas     []string
		wantConcepts  []string
		wantStrategy  Strategy
		wantOptimized string
	}{
		{
			name:          "korean article reference",
			query:         "제10조 인간의 존엄",
			wantArticles:  []string{"10"},
			wantChapters:  []string{},
			wantParas:     []string{},
			wantConcepts:  []string{"인간의 존엄"},
			wantStrategy:  StrategyExactArticle,
			wantOptimized: "인간의 존엄",
		},
		{
			name:          "english article only",
			query:         "Article 3",
			wantArticles:  []string{"3"},
			wantChapters:  []string{},
			wantParas:     []string{},
			wantConcepts:  []string{},
			wantStrategy:  StrategyExactArticle,
			wantOptimized: "Article 3",
		},
		{
			name:          "concept with particle",
			query:         "평등 에 대한 조항",
			wantArticles:  []string{},
			wantChapters:  []string{},
			wantParas:     []string{},
			wantConcepts:  []string{"평등권"},
			wantStrategy:  StrategyConcept,
			wantOptimized: "평등 대한 조항",
		},
		{
			name:          "chapter and paragraph",
			query:         "제2장 제1항 ② budget",
			wantArticles:  []string{},
			wantChapters:  []string{"2"},
			wantParas:     []string{"1", "②"},
			wantConcepts:  []string{},
			wantStrategy:  StrategyHybrid,
			wantOptimized: "제2장 제1항 ② budget",
		},
		{
			name:          "english concepts",
			query:         "freedom of speech and property",
			wantArticles:  []string{},
			wantChapters:  []string{},
			wantParas:     []string{},
			wantConcepts:  []string{"자유권", "언론의 자유", "재산권"},
			wantStrategy:  StrategyConcept,
			wantOptimized: "freedom of speech and property",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := qa.Analyze(tt.query)
			if !reflect.DeepEqual(got.ArticleFilters, tt.wantArticles) {
				t.Errorf("ArticleFilters = %v, want %v", got.ArticleFilters, tt.wantArticles)
			}
			if !reflect.DeepEqual(got.ChapterFilters, tt.wantChapters) {
				t.Errorf("ChapterFilters = %v, want %v", got.ChapterFilters, tt.wantChapters)
			}
			if !reflect.DeepEqual(got.ParagraphFilters, tt.wantParas) {
				t.Errorf("ParagraphFilters = %v, want %v", got.ParagraphFilters, tt.wantParas)
			}
			if !reflect.DeepEqual(got.Concepts, tt.wantConcepts) {
				t.Errorf("Concepts = %v, want %v", got.Concepts, tt.wantConcepts)
			}
			if got.Strategy != tt.wantStrategy {
				t.Errorf("Strategy = %v, want %v", got.Strategy, tt.wantStrategy)
			}
			if got.Optimized != tt.wantOptimized {
				t.Errorf("Optimized = %q, want %q", got.Optimized, tt.wantOptimized)
			}
		})
	}
}

func TestStrategy_String(t *testing.T) {
	if StrategyExactArticle.String() != "exact_article" || StrategyConcept.String() != "concept" || StrategyHybrid.String() != "hybrid" {
		t.Error("unexpected strategy names")
	}
}
