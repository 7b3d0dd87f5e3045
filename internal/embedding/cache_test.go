package embedding

import (
	"context"
	"errors"
	"sync"
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
	if c.Len() != 2 {
		t.Errorf("Len=%d, want 2", c.Len())
	}
}

func TestEmbeddingCache_GetRefreshesRecency(t *testing.T) {
	c := NewEmbeddingCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Get("a")
	c.Set("c", []float32{3}) // evicts b, a was used more recently
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to remain after recent Get")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
}

func TestEmbeddingCache_ConcurrentAccess(t *testing.T) {
	c := NewEmbeddingCache(8)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%4))
			c.Set(key, []float32{float32(i)})
			c.Get(key)
		}(i)
	}
	wg.Wait()
	if c.Len() != 4 {
		t.Errorf("Len=%d, want 4", c.Len())
	}
}

type countingEmbedder struct {
	*MockEmbedder
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.MockEmbedder.Embed(ctx, text)
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(4)}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	first, err := e.Embed(ctx, "kualitas air sungai")
	if err != nil {
		t.Fatal(err)
	}
	second, _ := e.Embed(ctx, "kualitas air sungai")
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatal("cached embedding differs")
		}
	}
	if e.Dimensions() != 4 {
		t.Errorf("Dimensions=%d", e.Dimensions())
	}
}

func TestCachedEmbedder_ErrorsNotCached(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(4), err: errors.New("backend down")}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()
	if _, err := e.Embed(ctx, "q"); err == nil {
		t.Fatal("expected error")
	}
	inner.err = nil
	if _, err := e.Embed(ctx, "q"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls)
	}
}

func TestNewCachedEmbedder_ZeroCapacity(t *testing.T) {
	inner := NewMockEmbedder(4)
	if e := NewCachedEmbedder(inner, 0); e != Embedder(inner) {
		t.Error("zero capacity should return inner embedder")
	}
}
