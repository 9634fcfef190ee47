package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kenpo/internal/models"
)

func article(id, cc, num, ko string) models.ArticleResult {
	return models.ArticleResult{
		ID:          id,
		Country:     cc,
		CountryName: cc,
		DisplayPath: cc + " constitution",
		Structure:   models.Structure{ArticleNumber: num},
		KoreanText:  ko,
	}
}

func TestWritePairs(t *testing.T) {
	resp := &models.CompareResponse{
		SearchID: "search-1",
		Query:    "인간의 존엄",
		Pairs: []models.ComparisonPair{
			{
				Korean: article("kr-10", "KR", "10", "모든 국민은 인간으로서의 존엄과 가치를 가진다."),
				Foreign: map[string]models.CountryPage{
					"US": {Items: []models.ArticleResult{article("us-14", "US", "14", "평등 보호")}, Total: 1},
					"DE": {Items: []models.ArticleResult{
						article("de-1", "DE", "1", "인간의 존엄은 불가침이다."),
						article("de-2", "DE", "2", "인격의 자유로운 발현"),
					}, Total: 2},
				},
			},
			{Korean: article("kr-11", "KR", "11", "법 앞에 평등"), Foreign: map[string]models.CountryPage{}},
		},
		Summary: &models.Summary{Text: "독일은 [DE-1]에서 존엄을 규정한다.", Citations: []string{"DE-1"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePairs(&buf, resp))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{PairsSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(PairsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5, "header + 3 matched rows + 1 unmatched anchor")
	assert.Equal(t, "Korean Article", rows[0][0])

	// countries are written in code order
	assert.Equal(t, "DE", rows[1][3])
	assert.Equal(t, "1", rows[1][5])
	assert.Equal(t, "Article 1", rows[1][6])
	assert.Equal(t, "DE", rows[2][3])
	assert.Equal(t, "2", rows[2][5])
	assert.Equal(t, "US", rows[3][3])
	assert.Equal(t, "Article 10", rows[3][0])

	assert.Equal(t, "Article 11", rows[4][0])
	assert.Len(t, rows[4], 3)

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Query", "인간의 존엄"}, summary[0])
	assert.Equal(t, []string{"Search ID", "search-1"}, summary[1])
	assert.Equal(t, []string{"Summary", "독일은 [DE-1]에서 존엄을 규정한다."}, summary[4])
	assert.Equal(t, []string{"Citations", "DE-1"}, summary[5])
}

func TestWritePairs_NoSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePairs(&buf, &models.CompareResponse{SearchID: "s", Query: "q"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(PairsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Len(t, summary, 4)
}

func TestWritePairs_Nil(t *testing.T) {
	assert.Error(t, WritePairs(&bytes.Buffer{}, nil))
}
