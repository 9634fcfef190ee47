package keyword

import (
	"regexp"
	"sort"
)

var (
	koreanArticleRe  = regexp.MustCompile(`제\s*(\d+)\s*조`)
	englishArticleRe = regexp.MustCompile(`(?i)article\s*\(?\s*(\d+)\s*\)?`)
)

// ExtractArticleNumbers returns the article numbers referenced in query
// ("제10조", "제 10 조", "Article 10", "article (10)"), deduplicated in order
// of first appearance across both forms.
func ExtractArticleNumbers(query string) []string {
	type match struct {
		pos int
		num string
	}
	var found []match
	for _, re := range []*regexp.Regexp{koreanArticleRe, englishArticleRe} {
		for _, loc := range re.FindAllStringSubmatchIndex(query, -1) {
			found = append(found, match{pos: loc[0], num: query[loc[2]:loc[3]]})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	seen := make(map[string]bool, len(found))
	out := make([]string, 0, len(found))
	for _, m := range found {
		n := trimLeadingZeros(m.num)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func trimLeadingZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}
