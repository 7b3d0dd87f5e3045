package vector

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryIndex_AddSearch_L2(t *testing.T) {
	idx, err := NewMemoryIndex(3, MetricL2)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{0, 1, 0},
		{0.8, 0.6, 0},
		{1, 0, 0},
	}
	if err := idx.Add(ctx, []int{0, 1, 2}, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Position != 2 || results[1].Position != 1 {
		t.Errorf("unexpected order: %d, %d", results[0].Position, results[1].Position)
	}
	if results[0].Score != 0 {
		t.Errorf("exact match distance should be 0, got %f", results[0].Score)
	}
	if results[0].Score > results[1].Score {
		t.Error("L2 results should be ascending by distance")
	}
}

func TestMemoryIndex_AddSearch_InnerProduct(t *testing.T) {
	idx, _ := NewMemoryIndex(2, MetricInnerProduct)
	ctx := context.Background()
	_ = idx.Add(ctx, []int{10, 11, 12}, [][]float32{{0, 1}, {1, 0}, {0.6, 0.8}})

	results, err := idx.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{11, 12, 10}
	for i, r := range results {
		if r.Position != want[i] {
			t.Errorf("result %d: position %d, want %d", i, r.Position, want[i])
		}
	}
	if results[0].Score < results[1].Score {
		t.Error("inner product results should be descending")
	}
}

func TestMemoryIndex_SearchKLargerThanSize(t *testing.T) {
	idx, _ := NewMemoryIndex(2, MetricL2)
	ctx := context.Background()
	_ = idx.Add(ctx, []int{0, 1}, [][]float32{{1, 0}, {0, 1}})
	results, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestMemoryIndex_SearchEmpty(t *testing.T) {
	idx, _ := NewMemoryIndex(2, MetricL2)
	results, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(3, MetricL2)
	ctx := context.Background()
	if err := idx.Add(ctx, []int{0}, [][]float32{{1, 0}}); err == nil {
		t.Error("expected error adding wrong-dimension vector")
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("expected error searching with wrong-dimension query")
	}
	if err := idx.Add(ctx, []int{0, 1}, [][]float32{{1, 0, 0}}); err == nil {
		t.Error("expected error for positions/vectors length mismatch")
	}
}

func TestNewMemoryIndex_Invalid(t *testing.T) {
	if _, err := NewMemoryIndex(0, MetricL2); err == nil {
		t.Error("expected error for zero dimensions")
	}
	if _, err := NewMemoryIndex(3, Metric("cosine")); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestMemoryIndex_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.index")
	ctx := context.Background()

	idx, _ := NewMemoryIndex(2, MetricL2)
	_ = idx.Add(ctx, []int{4, 7}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	idx2, _ := NewMemoryIndex(2, MetricL2)
	if err := idx2.Load(path); err != nil {
		t.Fatal(err)
	}
	if idx2.Size() != 2 {
		t.Errorf("after load Size=%d", idx2.Size())
	}
	results, _ := idx2.Search(ctx, []float32{0, 1}, 1)
	if len(results) != 1 || results[0].Position != 7 {
		t.Errorf("after load search: %+v", results)
	}
}

func TestMemoryIndex_LoadMetricMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.index")
	idx, _ := NewMemoryIndex(2, MetricInnerProduct)
	_ = idx.Add(context.Background(), []int{0}, [][]float32{{1, 0}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	other, _ := NewMemoryIndex(2, MetricL2)
	if err := other.Load(path); err == nil {
		t.Error("expected metric mismatch error")
	}
	wrongDim, _ := NewMemoryIndex(3, MetricInnerProduct)
	if err := wrongDim.Load(path); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestMemoryIndex_LoadTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.index")
	idx, _ := NewMemoryIndex(2, MetricL2)
	_ = idx.Add(context.Background(), []int{0, 1}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if err := os.WriteFile(path, data[:len(data)-3], 0600); err != nil {
		t.Fatal(err)
	}
	other, _ := NewMemoryIndex(2, MetricL2)
	if err := other.Load(path); err == nil {
		t.Error("expected error for truncated file")
	}
}

func TestMemoryIndex_LoadMissingFile(t *testing.T) {
	idx, _ := NewMemoryIndex(2, MetricL2)
	if err := idx.Load(filepath.Join(t.TempDir(), "missing.index")); err != nil {
		t.Errorf("missing file should not error: %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("Size=%d", idx.Size())
	}
}

func TestMetric_Similarity(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		score  float64
		want   float64
	}{
		{"l2 identical", MetricL2, 0, 1},
		{"l2 orthogonal", MetricL2, math.Sqrt2, 0},
		{"l2 opposite", MetricL2, 2, -1},
		{"l2 beyond opposite clamps", MetricL2, 2.0001, -1},
		{"ip passthrough", MetricInnerProduct, 0.42, 0.42},
		{"ip rounding clamps", MetricInnerProduct, 1.0000001, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.metric.Similarity(tt.score)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%f) = %f, want %f", tt.score, got, tt.want)
			}
		})
	}
}

func TestMetric_SimilarityMonotonic(t *testing.T) {
	prev := MetricL2.Similarity(0)
	for d := 0.05; d <= 2.0; d += 0.05 {
		sim := MetricL2.Similarity(d)
		if sim > prev {
			t.Fatalf("similarity increased at d=%f: %f > %f", d, sim, prev)
		}
		if sim < -1 || sim > 1 {
			t.Fatalf("similarity out of bounds at d=%f: %f", d, sim)
		}
		prev = sim
	}
}

func TestParseMetric(t *testing.T) {
	if m, err := ParseMetric("l2"); err != nil || m != MetricL2 {
		t.Errorf("ParseMetric(l2) = %v, %v", m, err)
	}
	if m, err := ParseMetric("ip"); err != nil || m != MetricInnerProduct {
		t.Errorf("ParseMetric(ip) = %v, %v", m, err)
	}
	if _, err := ParseMetric("cosine"); err == nil {
		t.Error("expected error for cosine")
	}
}

func TestL2Distance(t *testing.T) {
	if d := L2Distance([]float32{1, 0}, []float32{0, 1}); math.Abs(d-math.Sqrt2) > 1e-6 {
		t.Errorf("L2Distance = %f", d)
	}
	if d := L2Distance([]float32{1}, []float32{1, 0}); !math.IsInf(d, 1) {
		t.Errorf("length mismatch should be +Inf, got %f", d)
	}
}
