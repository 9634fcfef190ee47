package embedding

import (
	"context"
	"testing"
)

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func TestHashEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(256)

	a, _ := e.Embed(ctx, "Human dignity is inviolable.")
	b, _ := e.Embed(ctx, "the dignity of the human person")
	c, _ := e.Embed(ctx, "tax collection procedure")
	again, _ := e.Embed(ctx, "Human dignity is inviolable.")

	if len(a) != 256 {
		t.Fatalf("len = %d", len(a))
	}
	if dot(a, again) < 0.999 {
		t.Error("embedding should be deterministic")
	}
	if dot(a, b) <= dot(a, c) {
		t.Errorf("overlapping text should be closer: %v <= %v", dot(a, b), dot(a, c))
	}

	empty, _ := e.Embed(ctx, "")
	for _, v := range empty {
		if v != 0 {
			t.Fatal("empty text should embed to zero vector")
		}
	}
}

func TestEmbedQuery_FallsBackToEmbed(t *testing.T) {
	e := NewHashEmbedder(8)
	q, err := EmbedQuery(context.Background(), e, "dignity")
	if err != nil {
		t.Fatal(err)
	}
	p, _ := e.Embed(context.Background(), "dignity")
	if dot(q, p) < 0.999 {
		t.Error("query and passage embeddings should match for HashEmbedder")
	}
}
