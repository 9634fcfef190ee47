// Package keyword provides the lexical signals of hybrid search: an Okapi
// BM25 scorer fitted over a just-retrieved candidate set, and extraction of
// explicit article references from query text.
package keyword

import (
	"math"
	"strings"
)

// BM25 parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// BM25 scores documents of a small in-memory corpus. It is fitted per query
// and never persisted.
type BM25 struct {
	K1 float64
	B  float64

	docs   []map[string]int
	lens   []int
	idf    map[string]float64
	avgLen float64
}

// NewBM25 returns a scorer with the standard parameters.
func NewBM25() *BM25 {
	return &BM25{K1: DefaultK1, B: DefaultB}
}

// Tokenize lowercases text and splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Fit computes term frequencies, document frequencies and average length.
func (b *BM25) Fit(corpus []string) {
	b.docs = make([]map[string]int, len(corpus))
	b.lens = make([]int, len(corpus))
	b.idf = make(map[string]float64)
	df := make(map[string]int)
	total := 0
	for i, doc := range corpus {
		terms := Tokenize(doc)
		tf := make(map[string]int, len(terms))
		for _, t := range terms {
			tf[t]++
		}
		for t := range tf {
			df[t]++
		}
		b.docs[i] = tf
		b.lens[i] = len(terms)
		total += len(terms)
	}
	if len(corpus) == 0 {
		b.avgLen = 0
		return
	}
	b.avgLen = float64(total) / float64(len(corpus))
	n := float64(len(corpus))
	for t, freq := range df {
		f := float64(freq)
		b.idf[t] = math.Log(1 + (n-f+0.5)/(f+0.5))
	}
}

// Len returns the number of fitted documents.
func (b *BM25) Len() int { return len(b.docs) }

// Score returns the BM25 score of query against the document at index i.
// Unknown terms, an empty corpus or an out-of-range index score zero.
func (b *BM25) Score(query string, i int) float64 {
	if b.avgLen == 0 || i < 0 || i >= len(b.docs) {
		return 0
	}
	tf := b.docs[i]
	norm := b.K1 * (1 - b.B + b.B*float64(b.lens[i])/b.avgLen)
	var score float64
	for _, term := range Tokenize(query) {
		idf, ok := b.idf[term]
		if !ok {
			continue
		}
		f := float64(tf[term])
		if f == 0 {
			continue
		}
		score += idf * f * (b.K1 + 1) / (f + norm)
	}
	return score
}

// ScoreAll scores query against every fitted document.
func (b *BM25) ScoreAll(query string) []float64 {
	out := make([]float64, len(b.docs))
	for i := range b.docs {
		out[i] = b.Score(query, i)
	}
	return out
}
