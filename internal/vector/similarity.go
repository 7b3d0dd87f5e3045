package vector

import (
	"fmt"
	"math"
)

// Metric is the distance or score convention an index was built with.
type Metric string

const (
	// MetricL2 scores hits by Euclidean distance; lower is closer.
	MetricL2 Metric = "l2"
	// MetricInnerProduct scores hits by inner product; higher is closer.
	MetricInnerProduct Metric = "ip"
)

// ParseMetric returns the metric named by s.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricL2, MetricInnerProduct:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("unknown metric: %s (supported: l2, ip)", s)
	}
}

// Similarity converts a native index score into a similarity in [-1, 1], higher is more relevant.
// For unit vectors d² = 2(1 - cos θ), so an L2 distance maps to 1 - d²/2; an inner product
// already is the cosine and passes through. The result is clamped to absorb rounding.
func (m Metric) Similarity(score float64) float64 {
	sim := score
	if m == MetricL2 {
		sim = 1 - (score*score)/2
	}
	return math.Max(-1, math.Min(1, sim))
}

// Closer reports whether native score a ranks ahead of b under this metric.
func (m Metric) Closer(a, b float64) bool {
	if m == MetricL2 {
		return a < b
	}
	return a > b
}

// Score returns the native score of vec against query under this metric.
func (m Metric) Score(query, vec []float32) float64 {
	if m == MetricL2 {
		return L2Distance(query, vec)
	}
	return InnerProduct(query, vec)
}

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Distance returns the Euclidean distance between two vectors.
func L2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
