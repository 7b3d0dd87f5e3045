// Package vector provides vector index and similarity search.
package vector

import "context"

// VectorIndex defines vector storage and nearest-neighbor search keyed by chunk position.
type VectorIndex interface {
	Add(ctx context.Context, positions []int, vectors [][]float32) error
	// Search returns at most k hits in the index's native order: ascending distance
	// for MetricL2, descending inner product for MetricInnerProduct.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Metric() Metric
	Dimensions() int
	Size() int
	Type() string
	Save(path string) error
	Load(path string) error
	Close() error
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	Position int
	Score    float64 // Euclidean distance for MetricL2, inner product for MetricInnerProduct
}
