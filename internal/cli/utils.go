// Package cli provides output writers for the kenpo command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	separator  = "─────────────────────────────────────────────────────────"
	textMaxLen = 200
)

// ParseFormat maps a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms (strategy: %s)\n\n", response.Total, response.QueryTime, response.Strategy)
	for i, result := range response.Results {
		writeOneResult(w, i+1, result)
	}
	return nil
}

func writeOneResult(w io.Writer, rank int, result models.RerankedResult) {
	m := result.Metadata
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "#%d [%s] Article %s | Score: %.4f (display %.2f, fusion %.4f)\n",
		rank, m.Country, m.Structure.ArticleNumber, result.Score, result.DisplayScore, result.FusionScore)
	if result.ReScore != nil {
		fmt.Fprintf(w, "Rerank: %.4f\n", *result.ReScore)
	}
	fmt.Fprintf(w, "ID: %s\n", result.ID)
	if m.DisplayPath != "" {
		fmt.Fprintf(w, "Path: %s\n", m.DisplayPath)
	}
	fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(result.Text, textMaxLen))
}

// WriteCompare writes a comparative search response to w in the given format.
func WriteCompare(w io.Writer, response *models.CompareResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nSearch %s: %d Korean articles, %d foreign matches in %dms\n",
		response.SearchID, response.TotalKoreanFound, response.TotalForeignFound, response.SearchTimeMs)
	for _, pair := range response.Pairs {
		fmt.Fprintln(w, separator)
		writeArticle(w, "", pair.Korean)
		codes := make([]string, 0, len(pair.Foreign))
		for code := range pair.Foreign {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			page := pair.Foreign[code]
			next := "end"
			if page.NextCursor != nil {
				next = fmt.Sprintf("next cursor %d", *page.NextCursor)
			}
			fmt.Fprintf(w, "\n  %s (%d total, %s)\n", code, page.Total, next)
			for _, item := range page.Items {
				writeArticle(w, "    ", item)
			}
		}
		fmt.Fprintln(w)
	}
	if response.Summary != nil {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "Summary:\n%s\n", response.Summary.Text)
	}
	return nil
}

// WriteCountryPage writes one replayed country page.
func WriteCountryPage(w io.Writer, page *models.CountryPage, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, page)
	}
	for _, item := range page.Items {
		writeArticle(w, "", item)
	}
	if page.NextCursor != nil {
		fmt.Fprintf(w, "\n%d total, next cursor %d\n", page.Total, *page.NextCursor)
	} else {
		fmt.Fprintf(w, "\n%d total\n", page.Total)
	}
	return nil
}

func writeArticle(w io.Writer, indent string, a models.ArticleResult) {
	fmt.Fprintf(w, "%s[%s] %s Article %s (%.2f)\n", indent, a.Country, a.CountryName, a.Structure.ArticleNumber, a.DisplayScore)
	text := a.KoreanText
	if text == "" {
		text = a.EnglishText
	}
	if text != "" {
		fmt.Fprintf(w, "%s  %s\n", indent, utils.Truncate(text, textMaxLen))
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
