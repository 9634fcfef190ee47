package models

// ArticleResult is the UI-facing shape of one constitution article.
type ArticleResult struct {
	ID                string    `json:"id"`
	Country           string    `json:"country"`
	CountryName       string    `json:"country_name"`
	ConstitutionTitle string    `json:"constitution_title"`
	Continent         string    `json:"continent"`
	DisplayPath       string    `json:"display_path"`
	Structure         Structure `json:"structure"`
	KoreanText        string    `json:"korean_text,omitempty"`
	EnglishText       string    `json:"english_text,omitempty"`
	TextType          string    `json:"text_type"`
	HasKorean         bool      `json:"has_korean"`
	HasEnglish        bool      `json:"has_english"`
	Page              int       `json:"page"`
	PageKorean        int       `json:"page_korean,omitempty"`
	PageEnglish       int       `json:"page_english,omitempty"`
	BBoxInfo          []BBox    `json:"bbox_info"`
	RawScore          float64   `json:"raw_score"`
	Score             float64   `json:"score"`
	DisplayScore      float64   `json:"display_score"`
}

// DedupeKey identifies the same article surfaced through different chunks.
func (a ArticleResult) DedupeKey() [3]string {
	return [3]string{a.Country, a.DisplayPath, a.Structure.ArticleNumber}
}

// CountryPage is one cursor page of a country's matched articles.
type CountryPage struct {
	Items      []ArticleResult `json:"items"`
	NextCursor *int            `json:"next_cursor"`
	Total      int             `json:"total"`
}

// ComparisonPair is one Korean anchor article and its foreign matches by country.
type ComparisonPair struct {
	Korean  ArticleResult          `json:"korean"`
	Foreign map[string]CountryPage `json:"foreign"`
}

// Summary is the language-model comparison of a result set.
type Summary struct {
	Text             string   `json:"text"`
	Citations        []string `json:"citations"`
	UnknownCitations []string `json:"unknown_citations,omitempty"`
	Model            string   `json:"model,omitempty"`
}

// CompareResponse is the result of a comparative search.
type CompareResponse struct {
	SearchID          string           `json:"search_id"`
	Query             string           `json:"query"`
	Pairs             []ComparisonPair `json:"pairs"`
	Summary           *Summary         `json:"summary,omitempty"`
	SearchTimeMs      int64            `json:"search_time_ms"`
	TotalKoreanFound  int              `json:"total_korean_found"`
	TotalForeignFound int              `json:"total_foreign_found"`
}

// SearchResponse is the result of a single hybrid search.
type SearchResponse struct {
	Query     string           `json:"query"`
	Results   []RerankedResult `json:"results"`
	Total     int              `json:"total"`
	QueryTime int64            `json:"query_time_ms"`
	Strategy  string           `json:"strategy,omitempty"`
}
