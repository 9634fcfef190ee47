package embedding

import (
	"hash/fnv"
	"strings"
)

const (
	clsToken  = 101
	sepToken  = 102
	vocabSize = 30000
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// PairTokenizer encodes a (query, passage) pair for cross-encoders as
// [CLS] a [SEP] b [SEP], with token type 1 on the second segment.
type PairTokenizer interface {
	TokenizePair(a, b string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs.
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = clsToken
	attentionMask[0] = 1

	pos := 1
	for _, word := range SplitWords(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = TokenID(word)
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = sepToken
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// TokenizePair encodes a and b into one sequence. The first segment keeps
// at most half of the budget when both segments are long.
func (t *SimpleTokenizer) TokenizePair(a, b string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens < 4 {
		maxTokens = 512
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	wa, wb := SplitWords(a), SplitWords(b)
	budget := maxTokens - 3
	if len(wa)+len(wb) > budget {
		keepA := budget / 2
		if rest := budget - len(wb); rest > keepA {
			keepA = rest
		}
		wa = TruncateWords(wa, keepA)
		wb = TruncateWords(wb, budget-len(wa))
	}

	pos := 0
	put := func(id, typ int64) {
		inputIDs[pos] = id
		attentionMask[pos] = 1
		tokenTypeIDs[pos] = typ
		pos++
	}
	put(clsToken, 0)
	for _, w := range wa {
		put(TokenID(w), 0)
	}
	put(sepToken, 0)
	for _, w := range wb {
		put(TokenID(w), 1)
	}
	put(sepToken, 1)
	return inputIDs, attentionMask, tokenTypeIDs
}

// SplitWords splits text on whitespace and returns non-empty words.
func SplitWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	return words
}

// TokenID returns a deterministic vocabulary ID for word, clear of the
// special token range.
func TokenID(word string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(word)))
	return int64(h.Sum32()%(vocabSize-1000)) + 1000
}

// TruncateWords returns up to maxWords words from the slice.
func TruncateWords(words []string, maxWords int) []string {
	if maxWords < 0 {
		maxWords = 0
	}
	if len(words) <= maxWords {
		return words
	}
	return words[:maxWords]
}
