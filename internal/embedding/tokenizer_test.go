package embedding

import (
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize("hello world", 10)
	if len(ids) != 10 {
		t.Errorf("len(ids)=%d", len(ids))
	}
	if ids[0] != clsToken {
		t.Errorf("expected CLS 101, got %d", ids[0])
	}
	if ids[3] != sepToken {
		t.Errorf("expected SEP at 3, got %d", ids[3])
	}
	if attn[0] != 1 || attn[4] != 0 {
		t.Errorf("attention mask = %v", attn)
	}
}

func TestSimpleTokenizer_TokenizePair(t *testing.T) {
	tok := &SimpleTokenizer{}

	t.Run("short pair", func(t *testing.T) {
		ids, attn, types := tok.TokenizePair("a b", "c d e", 16)
		// [CLS] a b [SEP] c d e [SEP]
		if ids[0] != clsToken || ids[3] != sepToken || ids[7] != sepToken {
			t.Errorf("ids = %v", ids)
		}
		if types[2] != 0 || types[4] != 1 || types[7] != 1 {
			t.Errorf("types = %v", types)
		}
		if attn[7] != 1 || attn[8] != 0 {
			t.Errorf("attn = %v", attn)
		}
	})

	t.Run("long pair is truncated", func(t *testing.T) {
		long := "w w w w w w w w w w w w w w w w w w w w"
		ids, attn, _ := tok.TokenizePair(long, long, 11)
		if len(ids) != 11 {
			t.Fatalf("len = %d", len(ids))
		}
		if ids[10] != sepToken || attn[10] != 1 {
			t.Errorf("last token should be SEP, ids = %v", ids)
		}
	})
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  a  b  c  ")
	if len(words) != 3 {
		t.Errorf("expected 3 words, got %v", words)
	}
	if SplitWords("") != nil {
		t.Error("empty string should return nil")
	}
}

func TestTokenID(t *testing.T) {
	if TokenID("abc") != TokenID("ABC") {
		t.Error("token ids should be case-insensitive")
	}
	if id := TokenID("abc"); id < 1000 || id >= vocabSize {
		t.Errorf("id %d out of range", id)
	}
}
