package compare

import (
	"sort"

	"github.com/hyperjump/kenpo/internal/country"
	"github.com/hyperjump/kenpo/internal/models"
)

// Text type tags.
const (
	TextBilingual   = "bilingual"
	TextKoreanOnly  = "korean_only"
	TextEnglishOnly = "english_only"
)

// ToArticle converts a ranked hit into the UI shape. RawScore is the best
// available score (re-score, else fusion score), not the retrieval signal's.
// Unknown countries get country.DefaultContinent.
func ToArticle(r models.RerankedResult) models.ArticleResult {
	m := r.Metadata
	a := models.ArticleResult{
		ID:                r.Key(),
		Country:           m.Country,
		CountryName:       m.CountryName,
		ConstitutionTitle: m.ConstitutionTitle,
		Continent:         country.ContinentOf(m.Country, country.DefaultContinent),
		DisplayPath:       m.DisplayPath,
		Structure:         m.Structure,
		KoreanText:        m.KoreanText,
		EnglishText:       m.EnglishText,
		TextType:          m.TextType,
		Page:              m.Page,
		PageKorean:        m.PageKorean,
		PageEnglish:       m.PageEnglish,
		BBoxInfo:          m.BBoxInfo,
		RawScore:          r.BestScore(),
		Score:             r.Score,
		DisplayScore:      r.DisplayScore,
	}
	if a.CountryName == "" {
		a.CountryName = country.NameKo(m.Country)
	}
	if a.ConstitutionTitle == "" {
		a.ConstitutionTitle = a.CountryName + " 헌법"
	}
	if a.KoreanText == "" && a.EnglishText == "" {
		if m.Country == "KR" {
			a.KoreanText = r.Text
		} else {
			a.EnglishText = r.Text
		}
	}
	a.HasKorean = a.KoreanText != ""
	a.HasEnglish = a.EnglishText != ""
	if a.TextType == "" {
		switch {
		case a.HasKorean && a.HasEnglish:
			a.TextType = TextBilingual
		case a.HasKorean:
			a.TextType = TextKoreanOnly
		default:
			a.TextType = TextEnglishOnly
		}
	}
	if a.Page == 0 {
		a.Page = 1
	}
	if a.BBoxInfo == nil {
		a.BBoxInfo = []models.BBox{}
	}
	return a
}

// ToArticles converts a list of hits.
func ToArticles(results []models.RerankedResult) []models.ArticleResult {
	out := make([]models.ArticleResult, len(results))
	for i, r := range results {
		out[i] = ToArticle(r)
	}
	return out
}

// Dedupe keeps one article per (country, display path, article number).
// A later duplicate replaces the kept one only with a strictly higher
// score, so ties keep the first seen. Survivors stay at the position of
// their key's first occurrence.
func Dedupe(items []models.ArticleResult) []models.ArticleResult {
	pos := make(map[[3]string]int, len(items))
	out := make([]models.ArticleResult, 0, len(items))
	for _, it := range items {
		key := it.DedupeKey()
		if i, ok := pos[key]; ok {
			if it.Score > out[i].Score {
				out[i] = it
			}
			continue
		}
		pos[key] = len(out)
		out = append(out, it)
	}
	return out
}

// GroupByCountry splits items by country and sorts each group by score,
// highest first, keeping input order on ties.
func GroupByCountry(items []models.ArticleResult) map[string][]models.ArticleResult {
	groups := make(map[string][]models.ArticleResult)
	for _, it := range items {
		groups[it.Country] = append(groups[it.Country], it)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Score > g[j].Score })
	}
	return groups
}

// Paginate slices items at cursor. NextCursor is nil once the list is
// exhausted; a negative cursor reads from the start.
func Paginate(items []models.ArticleResult, cursor, size int) models.CountryPage {
	if cursor < 0 {
		cursor = 0
	}
	if size <= 0 {
		size = models.DefaultForeignTopK
	}
	page := models.CountryPage{Items: []models.ArticleResult{}, Total: len(items)}
	if cursor >= len(items) {
		return page
	}
	end := min(cursor+size, len(items))
	page.Items = append(page.Items, items[cursor:end]...)
	if next := cursor + size; next < len(items) {
		page.NextCursor = &next
	}
	return page
}

type pairOptions struct {
	keepDuplicates bool
}

// PairOption configures BuildPairs.
type PairOption func(*pairOptions)

// KeepDuplicates disables deduplication of foreign matches.
func KeepDuplicates() PairOption {
	return func(o *pairOptions) { o.keepDuplicates = true }
}

// BuildPairs assembles one ComparisonPair per anchor, in anchor order.
// matched is keyed by anchor id; cursors by country code.
func BuildPairs(
	anchors []models.ArticleResult,
	matched map[string][]models.RerankedResult,
	pageSize int,
	cursors map[string]int,
	opts ...PairOption,
) []models.ComparisonPair {
	var o pairOptions
	for _, opt := range opts {
		opt(&o)
	}

	pairs := make([]models.ComparisonPair, 0, len(anchors))
	for _, anchor := range anchors {
		items := ToArticles(matched[anchor.ID])
		if !o.keepDuplicates {
			items = Dedupe(items)
		}
		foreign := make(map[string]models.CountryPage)
		for code, group := range GroupByCountry(items) {
			foreign[code] = Paginate(group, cursors[code], pageSize)
		}
		pairs = append(pairs, models.ComparisonPair{Korean: anchor, Foreign: foreign})
	}
	return pairs
}
