// Package models defines the records, hits and comparison shapes shared by
// search, matching and the HTTP API.
package models

// Record is one stored constitution chunk, usually a single article or paragraph.
type Record struct {
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id"`
	Text      string    `json:"text"`
	Metadata  Metadata  `json:"metadata"`
	Source    string    `json:"source,omitempty"`
	Embedding []float32 `json:"-"`
}

// RecordInput is one line of a JSONL corpus file or an API ingest body.
type RecordInput struct {
	ID       string         `json:"id,omitempty"`
	DocID    string         `json:"doc_id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// EmbeddingText returns the text used for embedding and lexical scoring.
func (r *Record) EmbeddingText() string {
	switch {
	case r.Text != "":
		return r.Text
	case r.Metadata.HasKorean():
		return r.Metadata.KoreanText
	default:
		return r.Metadata.EnglishText
	}
}

// Hit converts the record to a search hit with the given signal score and rank.
func (r *Record) Hit(score float64, rank int) SearchHit {
	return SearchHit{
		ID:       r.ID,
		DocID:    r.DocID,
		Text:     r.EmbeddingText(),
		RawScore: score,
		Rank:     rank,
		Metadata: r.Metadata,
	}
}
