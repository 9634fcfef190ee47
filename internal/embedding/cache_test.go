package embedding

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
}

type countingEmbedder struct {
	*HashEmbedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.HashEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls += len(texts)
	return c.HashEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(16)}
	c := NewCachedEmbedder(inner, 10)

	if _, err := c.Embed(ctx, "human dignity"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(ctx, "human dignity"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}

	vecs, err := c.EmbedBatch(ctx, []string{"human dignity", "equality"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 || vecs[0] == nil || vecs[1] == nil {
		t.Fatalf("EmbedBatch = %v", vecs)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2", inner.calls)
	}
	if c.Dimensions() != 16 {
		t.Errorf("Dimensions = %d", c.Dimensions())
	}
}

type gatedEmbedder struct {
	*HashEmbedder
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	g.calls.Add(1)
	<-g.release
	return g.HashEmbedder.Embed(ctx, text)
}

func TestCachedEmbedder_ConcurrentMissesShareCall(t *testing.T) {
	inner := &gatedEmbedder{HashEmbedder: NewHashEmbedder(8), release: make(chan struct{})}
	c := NewCachedEmbedder(inner, 10)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Embed(context.Background(), "freedom of the press")
			errs <- err
		}()
	}
	for inner.calls.Load() == 0 {
		runtime.Gosched()
	}
	close(inner.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.Embed(context.Background(), "freedom of the press"); err != nil {
		t.Fatal(err)
	}
	if n := inner.calls.Load(); n < 1 || n > 4 {
		t.Errorf("calls = %d", n)
	}
	if c.cache.Len() != 1 {
		t.Errorf("cache len = %d, want 1", c.cache.Len())
	}
}
