package compare

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/search"
)

const (
	summarySources    = 2
	koreanSnippetLen  = 150
	foreignSnippetLen = 100
)

var (
	citationRe    = regexp.MustCompile(`\[([A-Z]{2}-\d+)\]`)
	extraSpacesRe = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforeRe = regexp.MustCompile(`\s+([.,;:!?])`)
)

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Summarizer asks a language model to compare Korean and foreign articles.
// Every source is labelled ([KR-1], [GH-1], ...) and the answer may only
// cite those labels.
type Summarizer struct {
	client Completer
	logger *zap.Logger
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(client Completer, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{client: client, logger: logger}
}

type source struct {
	label   string
	article models.ArticleResult
}

// labelSources labels the first two Korean and the first two foreign
// articles. Foreign labels count per country.
func labelSources(korean, foreign []models.ArticleResult) (kr, fr []source) {
	for i, a := range korean[:min(summarySources, len(korean))] {
		kr = append(kr, source{label: fmt.Sprintf("KR-%d", i+1), article: a})
	}
	counts := make(map[string]int)
	for _, a := range foreign[:min(summarySources, len(foreign))] {
		counts[a.Country]++
		fr = append(fr, source{label: fmt.Sprintf("%s-%d", a.Country, counts[a.Country]), article: a})
	}
	return kr, fr
}

func buildPrompt(query string, kr, fr []source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "다음은 \"%s\"에 관한 한국 헌법과 외국 헌법의 조항입니다.\n\n", query)
	b.WriteString("# 한국 헌법\n")
	for _, s := range kr {
		text := s.article.KoreanText
		if text == "" {
			text = s.article.EnglishText
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", s.label, s.article.DisplayPath, search.Snippet(text, koreanSnippetLen))
	}
	b.WriteString("\n# 외국 헌법\n")
	for _, s := range fr {
		fmt.Fprintf(&b, "[%s] %s %s:", s.label, s.article.CountryName, s.article.DisplayPath)
		if s.article.HasEnglish {
			fmt.Fprintf(&b, " [영어] %s", search.Snippet(s.article.EnglishText, foreignSnippetLen))
		}
		if s.article.HasKorean {
			fmt.Fprintf(&b, " [한글] %s", search.Snippet(s.article.KoreanText, foreignSnippetLen))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n위 조항들을 비교하여 2-3문장으로 요약해주세요. 공통점과 차이점을 중심으로 설명하고, ")
	b.WriteString("근거로 삼은 조항은 위에 표시된 [KR-1] 형식의 라벨로만 인용하세요.")
	return b.String()
}

// Summarize returns nil when there is nothing to compare.
func (s *Summarizer) Summarize(
	ctx context.Context,
	query string,
	korean, foreign []models.ArticleResult,
) (*models.Summary, error) {
	if len(korean) == 0 && len(foreign) == 0 {
		return nil, nil
	}
	kr, fr := labelSources(korean, foreign)
	text, err := s.client.Complete(ctx, buildPrompt(query, kr, fr))
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary: %w", err)
	}

	known := make(map[string]bool, len(kr)+len(fr))
	for _, src := range append(kr, fr...) {
		known[src.label] = true
	}
	clean, cited, unknown := checkCitations(text, known)
	if len(unknown) > 0 {
		s.logger.Warn("summary cited unknown sources", zap.Strings("labels", unknown))
	}
	return &models.Summary{
		Text:             clean,
		Citations:        cited,
		UnknownCitations: unknown,
		Model:            s.client.Model(),
	}, nil
}

// checkCitations strips citations of unknown labels from text and returns
// the cleaned text with the known and unknown labels in first-seen order.
func checkCitations(text string, known map[string]bool) (string, []string, []string) {
	cited := []string{}
	var unknown []string
	seen := make(map[string]bool)
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		label := m[1]
		if seen[label] {
			continue
		}
		seen[label] = true
		if known[label] {
			cited = append(cited, label)
		} else {
			unknown = append(unknown, label)
		}
	}
	if len(unknown) == 0 {
		return text, cited, nil
	}
	clean := citationRe.ReplaceAllStringFunc(text, func(m string) string {
		if known[m[1:len(m)-1]] {
			return m
		}
		return ""
	})
	clean = extraSpacesRe.ReplaceAllString(clean, " ")
	clean = spaceBeforeRe.ReplaceAllString(clean, "$1")
	return strings.TrimSpace(clean), cited, unknown
}
