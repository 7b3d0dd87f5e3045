package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory vector index using brute-force search under a fixed metric.
// After loading it is read-only and safe for concurrent searches.
type MemoryIndex struct {
	dimensions int
	metric     Metric
	positions  []int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension and metric.
func NewMemoryIndex(dimensions int, metric Metric) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	return &MemoryIndex{
		dimensions: dimensions,
		metric:     metric,
		positions:  make([]int, 0),
		vectors:    make([][]float32, 0),
	}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Metric returns the metric the index scores with.
func (m *MemoryIndex) Metric() Metric {
	return m.metric
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Add appends vectors labelled with the given chunk positions.
func (m *MemoryIndex) Add(ctx context.Context, positions []int, vectors [][]float32) error {
	if len(positions) != len(vectors) {
		return fmt.Errorf("positions and vectors length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, pos := range positions {
		if len(vectors[i]) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), m.dimensions)
		}
		vec := make([]float32, m.dimensions)
		copy(vec, vectors[i])
		m.positions = append(m.positions, pos)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search returns the k closest vectors in native order. Ties keep insertion order.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.positions) == 0 {
		return nil, nil
	}
	scores := make([]VectorResult, len(m.positions))
	for i, vec := range m.vectors {
		scores[i] = VectorResult{Position: m.positions[i], Score: m.metric.Score(query, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return m.metric.Closer(scores[i].Score, scores[j].Score)
	})
	if k > len(scores) {
		k = len(scores)
	}
	result := make([]*VectorResult, k)
	for i := 0; i < k; i++ {
		r := scores[i]
		result[i] = &r
	}
	return result, nil
}

// Save persists the index to path. Directory is created if needed. Format: dimension (4),
// metric code (4), n (4), then per vector: position (4), vector (dimension*4 bytes).
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	header := []uint32{uint32(m.dimensions), metricCode(m.metric), uint32(len(m.positions))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, pos := range m.positions {
		if err := binary.Write(w, binary.LittleEndian, uint32(pos)); err != nil {
			return fmt.Errorf("write position: %w", err)
		}
		if _, err := w.Write(float32SliceToBytes(m.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush index file: %w", err)
	}
	return nil
}

// Load reads the index from path and replaces the in-memory contents. Dimensions and metric
// must match. If the file does not exist, no error is returned and the index is unchanged.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	dim, code, n := header[0], header[1], header[2]
	if int(dim) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, m.dimensions)
	}
	if code != metricCode(m.metric) {
		return fmt.Errorf("metric mismatch: file was built with %s, index expects %s", metricFromCode(code), m.metric)
	}
	positions := make([]int, 0, n)
	vectors := make([][]float32, 0, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		var pos uint32
		if err := binary.Read(r, binary.LittleEndian, &pos); err != nil {
			return fmt.Errorf("read position: %w", err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		positions = append(positions, int(pos))
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}
	m.mu.Lock()
	m.positions = positions
	m.vectors = vectors
	m.mu.Unlock()
	return nil
}

func metricCode(m Metric) uint32 {
	if m == MetricInnerProduct {
		return 1
	}
	return 0
}

func metricFromCode(code uint32) Metric {
	if code == 1 {
		return MetricInnerProduct
	}
	return MetricL2
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.positions)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
