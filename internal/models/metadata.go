package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidMetadata is returned when a record's metadata lacks a required key.
var ErrInvalidMetadata = errors.New("invalid metadata")

// Structure locates an article inside a constitution.
type Structure struct {
	ArticleNumber string `json:"article_number"`
	Paragraph     string `json:"paragraph,omitempty"`
	ChapterNumber string `json:"chapter_number,omitempty"`
}

// BBox is a highlight rectangle on a rendered page.
type BBox struct {
	Page int       `json:"page"`
	Rect []float64 `json:"rect,omitempty"`
	Lang string    `json:"lang,omitempty"`
}

// Metadata is the semi-structured record attached to every stored chunk.
// Country, DisplayPath and Structure.ArticleNumber are required; keys the
// record does not model are preserved in Extra.
type Metadata struct {
	Country           string         `json:"country"`
	DisplayPath       string         `json:"display_path"`
	Structure         Structure      `json:"structure"`
	KoreanText        string         `json:"korean_text,omitempty"`
	EnglishText       string         `json:"english_text,omitempty"`
	Page              int            `json:"page,omitempty"`
	PageKorean        int            `json:"page_korean,omitempty"`
	PageEnglish       int            `json:"page_english,omitempty"`
	DocType           string         `json:"doc_type,omitempty"`
	CountryName       string         `json:"country_name,omitempty"`
	ConstitutionTitle string         `json:"constitution_title,omitempty"`
	TextType          string         `json:"text_type,omitempty"`
	DocumentPart      string         `json:"document_part,omitempty"`
	CaseReferences    []string       `json:"case_references,omitempty"`
	BBoxInfo          []BBox         `json:"bbox_info,omitempty"`
	Extra             map[string]any `json:"-"`
}

var knownMetadataKeys = map[string]bool{
	"country": true, "display_path": true, "structure": true,
	"korean_text": true, "english_text": true,
	"page": true, "page_korean": true, "page_english": true,
	"doc_type": true, "country_name": true, "constitution_title": true,
	"text_type": true, "document_part": true, "case_references": true, "bbox_info": true,
	// legacy flat location keys
	"article_number": true, "paragraph": true, "chapter_number": true,
}

// ParseMetadata builds Metadata from a decoded JSON object and validates the
// required keys. Article numbers may arrive as strings or numbers; older
// records keep article_number at the top level instead of under structure.
func ParseMetadata(raw map[string]any) (Metadata, error) {
	if raw == nil {
		return Metadata{}, fmt.Errorf("%w: metadata is empty", ErrInvalidMetadata)
	}
	m := decodeMetadata(raw)
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

func decodeMetadata(raw map[string]any) Metadata {
	var m Metadata
	m.Country = strings.ToUpper(strings.TrimSpace(stringOf(raw["country"])))
	m.DisplayPath = stringOf(raw["display_path"])
	if s, ok := raw["structure"].(map[string]any); ok {
		m.Structure.ArticleNumber = stringOf(s["article_number"])
		m.Structure.Paragraph = stringOf(s["paragraph"])
		m.Structure.ChapterNumber = stringOf(s["chapter_number"])
	}
	if m.Structure.ArticleNumber == "" {
		m.Structure.ArticleNumber = stringOf(raw["article_number"])
	}
	if m.Structure.Paragraph == "" {
		m.Structure.Paragraph = stringOf(raw["paragraph"])
	}
	if m.Structure.ChapterNumber == "" {
		m.Structure.ChapterNumber = stringOf(raw["chapter_number"])
	}
	m.KoreanText = stringOf(raw["korean_text"])
	m.EnglishText = stringOf(raw["english_text"])
	m.Page = intOf(raw["page"])
	m.PageKorean = intOf(raw["page_korean"])
	m.PageEnglish = intOf(raw["page_english"])
	m.DocType = stringOf(raw["doc_type"])
	m.CountryName = stringOf(raw["country_name"])
	m.ConstitutionTitle = stringOf(raw["constitution_title"])
	m.TextType = stringOf(raw["text_type"])
	m.DocumentPart = stringOf(raw["document_part"])
	m.CaseReferences = stringsOf(raw["case_references"])
	if v, ok := raw["bbox_info"]; ok && v != nil {
		b, err := json.Marshal(v)
		if err == nil {
			_ = json.Unmarshal(b, &m.BBoxInfo)
		}
	}
	for k, v := range raw {
		if knownMetadataKeys[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[k] = v
	}
	return m
}

// Validate checks the required keys.
func (m Metadata) Validate() error {
	var missing []string
	if m.Country == "" {
		missing = append(missing, "country")
	}
	if m.DisplayPath == "" {
		missing = append(missing, "display_path")
	}
	if m.Structure.ArticleNumber == "" {
		missing = append(missing, "structure.article_number")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidMetadata, strings.Join(missing, ", "))
	}
	return nil
}

// ToMap flattens Metadata back into a generic object, Extra included.
func (m Metadata) ToMap() map[string]any {
	out := make(map[string]any, len(m.Extra)+16)
	for k, v := range m.Extra {
		out[k] = v
	}
	b, err := json.Marshal(m)
	if err != nil {
		return out
	}
	var known map[string]any
	if err := json.Unmarshal(b, &known); err != nil {
		return out
	}
	for k, v := range known {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the known fields and the Extra bag as one object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	type plain Metadata
	b, err := json.Marshal(plain(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return b, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON accepts any object and routes unknown keys to Extra.
// Required keys are not enforced here; use ParseMetadata at trust boundaries.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = decodeMetadata(raw)
	return nil
}

// HasKorean reports whether a Korean text body is present.
func (m Metadata) HasKorean() bool { return strings.TrimSpace(m.KoreanText) != "" }

// HasEnglish reports whether an English text body is present.
func (m Metadata) HasEnglish() bool { return strings.TrimSpace(m.EnglishText) != "" }

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func intOf(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func stringsOf(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s := stringOf(x); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}
