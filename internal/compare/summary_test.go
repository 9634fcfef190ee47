package compare

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kenpo/internal/models"
)

func TestLabelSources(t *testing.T) {
	korean := []models.ArticleResult{
		article("kr-10", "KR", "제10조", "10", 1),
		article("kr-11", "KR", "제11조", "11", 0.9),
		article("kr-12", "KR", "제12조", "12", 0.8),
	}
	foreign := []models.ArticleResult{
		article("us-1", "US", "Amendment I", "1", 1),
		article("us-14", "US", "Amendment XIV", "14", 0.9),
		article("gh-15", "GH", "Article 15", "15", 0.8),
	}
	kr, fr := labelSources(korean, foreign)
	require.Len(t, kr, 2)
	require.Len(t, fr, 2)
	assert.Equal(t, "KR-1", kr[0].label)
	assert.Equal(t, "KR-2", kr[1].label)
	assert.Equal(t, "US-1", fr[0].label)
	assert.Equal(t, "US-2", fr[1].label)
}

func TestBuildPrompt_Truncates(t *testing.T) {
	long := strings.Repeat("가", 400)
	kr := []source{{label: "KR-1", article: models.ArticleResult{DisplayPath: "제10조", KoreanText: long}}}
	fr := []source{{label: "GH-1", article: models.ArticleResult{
		CountryName: "가나", DisplayPath: "Article 15",
		EnglishText: strings.Repeat("a", 400), HasEnglish: true,
	}}}
	prompt := buildPrompt("존엄", kr, fr)
	assert.Contains(t, prompt, "[KR-1] 제10조: "+strings.Repeat("가", 150)+"...")
	assert.Contains(t, prompt, "[GH-1] 가나 Article 15: [영어] "+strings.Repeat("a", 100)+"...")
	assert.NotContains(t, prompt, "[한글]")
}

func TestCheckCitations(t *testing.T) {
	known := map[string]bool{"KR-1": true, "US-1": true}
	tests := []struct {
		name        string
		in          string
		wantText    string
		wantCited   []string
		wantUnknown []string
	}{
		{
			name:      "all known",
			in:        "Korea [KR-1] and the US [US-1] agree [KR-1].",
			wantText:  "Korea [KR-1] and the US [US-1] agree [KR-1].",
			wantCited: []string{"KR-1", "US-1"},
		},
		{
			name:        "unknown stripped",
			in:          "Ghana also protects it [GH-3]. Korea too [KR-1].",
			wantText:    "Ghana also protects it. Korea too [KR-1].",
			wantCited:   []string{"KR-1"},
			wantUnknown: []string{"GH-3"},
		},
		{
			name:      "no citations",
			in:        "Plain text.",
			wantText:  "Plain text.",
			wantCited: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, cited, unknown := checkCitations(tt.in, known)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantCited, cited)
			assert.Equal(t, tt.wantUnknown, unknown)
		})
	}
}

func TestSummarizer_NothingToCompare(t *testing.T) {
	s := NewSummarizer(&fakeCompleter{text: "x"}, nil)
	sum, err := s.Summarize(context.Background(), "q", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, sum)
}
