// Package export writes comparative search results as spreadsheets.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kenpo/internal/models"
)

// Sheet names.
const (
	PairsSheet   = "Pairs"
	SummarySheet = "Summary"
)

// ContentType is the media type of the workbook WritePairs produces.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var pairsHeader = []interface{}{
	"Korean Article", "Korean Path", "Korean Text",
	"Country", "Country Name", "Rank",
	"Foreign Article", "Foreign Path", "Foreign Text",
	"Score", "Display Score",
}

// WritePairs writes resp as an xlsx workbook. The Pairs sheet has one row per
// (anchor, country, item) in country code order; anchors without any foreign
// match still get one row. The Summary sheet holds query, search id and the
// summary text when present.
func WritePairs(w io.Writer, resp *models.CompareResponse) error {
	if resp == nil {
		return fmt.Errorf("export: nil response")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PairsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writePairs(f, resp.Pairs); err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, resp); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writePairs(f *excelize.File, pairs []models.ComparisonPair) error {
	row := 1
	if err := setRow(f, PairsSheet, row, pairsHeader); err != nil {
		return err
	}
	for _, p := range pairs {
		anchor := []interface{}{articleLabel(p.Korean), p.Korean.DisplayPath, articleText(p.Korean)}
		codes := make([]string, 0, len(p.Foreign))
		for code := range p.Foreign {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		wrote := false
		for _, code := range codes {
			for i, item := range p.Foreign[code].Items {
				row++
				values := append(append([]interface{}{}, anchor...),
					code, item.CountryName, i+1,
					articleLabel(item), item.DisplayPath, articleText(item),
					item.Score, item.DisplayScore,
				)
				if err := setRow(f, PairsSheet, row, values); err != nil {
					return err
				}
				wrote = true
			}
		}
		if !wrote {
			row++
			if err := setRow(f, PairsSheet, row, anchor); err != nil {
				return err
			}
		}
	}
	_ = f.SetColWidth(PairsSheet, "C", "C", 60)
	_ = f.SetColWidth(PairsSheet, "I", "I", 60)
	return nil
}

func writeSummary(f *excelize.File, resp *models.CompareResponse) error {
	rows := [][]interface{}{
		{"Query", resp.Query},
		{"Search ID", resp.SearchID},
		{"Korean Found", resp.TotalKoreanFound},
		{"Foreign Found", resp.TotalForeignFound},
	}
	if resp.Summary != nil {
		rows = append(rows,
			[]interface{}{"Summary", resp.Summary.Text},
			[]interface{}{"Citations", strings.Join(resp.Summary.Citations, ", ")},
			[]interface{}{"Model", resp.Summary.Model},
		)
	}
	for i, values := range rows {
		if err := setRow(f, SummarySheet, i+1, values); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SummarySheet, "B", "B", 80)
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func articleLabel(a models.ArticleResult) string {
	if a.Structure.ArticleNumber == "" {
		return a.ID
	}
	return "Article " + a.Structure.ArticleNumber
}

// articleText prefers the Korean body and falls back to English.
func articleText(a models.ArticleResult) string {
	if a.KoreanText != "" {
		return a.KoreanText
	}
	return a.EnglishText
}
