package country

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// NameIndex searches the registry by code, Korean name or English name.
// It lives in memory and is built once at startup.
type NameIndex struct {
	index bleve.Index
}

type nameDoc struct {
	Code   string `json:"code"`
	NameKo string `json:"name_ko"`
	NameEn string `json:"name_en"`
}

// NewNameIndex indexes every registry entry into an in-memory Bleve index.
func NewNameIndex() (*NameIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name_ko", text)
	docMapping.AddFieldMappingsAt("name_en", text)
	docMapping.AddFieldMappingsAt("code", text)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create country index: %w", err)
	}
	batch := index.NewBatch()
	for _, c := range All() {
		if err := batch.Index(c.Code, nameDoc{Code: c.Code, NameKo: c.NameKo, NameEn: c.NameEn}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index country %s: %w", c.Code, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to build country index: %w", err)
	}
	return &NameIndex{index: index}, nil
}

// Search returns countries whose code or names match query. Index hits come
// first in score order; registry entries containing the query as a substring
// follow, so partial Korean names still resolve.
func (n *NameIndex) Search(query string) ([]Country, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	lower := strings.ToLower(q)

	var clauses []blevequery.Query
	for _, field := range []string{"code", "name_ko", "name_en"} {
		mq := bleve.NewMatchQuery(q)
		mq.SetField(field)
		clauses = append(clauses, mq)
		pq := bleve.NewPrefixQuery(lower)
		pq.SetField(field)
		clauses = append(clauses, pq)
	}
	// Typo tolerance for English names only; Hangul edit distance is too coarse.
	if len([]rune(lower)) >= 4 {
		for _, term := range strings.Fields(lower) {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(1)
			fq.SetField("name_en")
			clauses = append(clauses, fq)
		}
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(clauses...))
	req.Size = len(registry.order)
	res, err := n.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("country search failed: %w", err)
	}

	seen := make(map[string]bool, len(res.Hits))
	out := make([]Country, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if c, ok := Lookup(hit.ID); ok && !seen[c.Code] {
			seen[c.Code] = true
			out = append(out, c)
		}
	}
	for _, c := range All() {
		if seen[c.Code] {
			continue
		}
		if strings.Contains(strings.ToLower(c.NameKo), lower) ||
			strings.Contains(strings.ToLower(c.NameEn), lower) ||
			strings.Contains(strings.ToLower(c.Code), lower) {
			seen[c.Code] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// Close releases the index.
func (n *NameIndex) Close() error {
	return n.index.Close()
}
