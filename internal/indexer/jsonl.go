package indexer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/hyperjump/kenpo/internal/fileid"
	"github.com/hyperjump/kenpo/internal/models"
)

const maxLineBytes = 4 * 1024 * 1024

// LineError describes one corpus line that could not be turned into a record.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

// ReadRecords parses a JSONL corpus. Blank lines are ignored; lines that
// fail to decode or validate are returned as LineErrors and skipped.
// Records without an id get one derived from source and line number.
func ReadRecords(r io.Reader, source string) ([]models.Record, []LineError, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []models.Record
	var bad []LineError
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var in models.RecordInput
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			bad = append(bad, LineError{Line: line, Err: err})
			continue
		}
		rec, err := RecordFromInput(in, source, line)
		if err != nil {
			bad = append(bad, LineError{Line: line, Err: err})
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, bad, fmt.Errorf("failed to read corpus: %w", err)
	}
	return records, bad, nil
}

// RecordFromInput validates one input and builds the record to store.
// line is used only when the input has no id.
func RecordFromInput(in models.RecordInput, source string, line int) (models.Record, error) {
	meta, err := models.ParseMetadata(in.Metadata)
	if err != nil {
		return models.Record{}, err
	}
	rec := models.Record{
		ID:       strings.TrimSpace(in.ID),
		DocID:    strings.TrimSpace(in.DocID),
		Text:     NormalizeText(in.Text),
		Metadata: meta,
		Source:   source,
	}
	if rec.ID == "" {
		rec.ID = fileid.RecordID(source, line)
	}
	if rec.DocID == "" {
		rec.DocID = source
	}
	if rec.EmbeddingText() == "" {
		return models.Record{}, fmt.Errorf("%w: record has no text", models.ErrInvalidMetadata)
	}
	return rec, nil
}

// NormalizeText trims, drops zero-width characters and collapses runs of
// whitespace to one space.
func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		switch {
		case r == '\u200b' || r == '\u200c' || r == '\u200d' || r == '\ufeff':
			continue
		case unicode.IsSpace(r):
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		default:
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
