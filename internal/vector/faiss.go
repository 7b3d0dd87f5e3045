//go:build faiss && cgo
// +build faiss,cgo

// Package vector provides FAISS-based vector index for production scale.
package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/index_io_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"unsafe"
)

// FAISSIndex is a flat FAISS index. IndexFlatL2 backs MetricL2 and IndexFlatIP backs
// MetricInnerProduct. FAISS labels are sequential; labels maps them back to chunk positions.
type FAISSIndex struct {
	index      *C.FaissIndex
	dimensions int
	metric     Metric
	labels     []int // FAISS label -> chunk position
	mu         sync.RWMutex
}

// NewFAISSIndex creates a flat FAISS index with the given dimension and metric.
func NewFAISSIndex(dimensions int, metric Metric) (*FAISSIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}

	var index *C.FaissIndex
	var ret C.int
	if metric == MetricL2 {
		var flat *C.FaissIndexFlatL2
		ret = C.faiss_IndexFlatL2_new_with(&flat, C.idx_t(dimensions))
		index = (*C.FaissIndex)(unsafe.Pointer(flat))
	} else {
		var flat *C.FaissIndexFlatIP
		ret = C.faiss_IndexFlatIP_new_with(&flat, C.idx_t(dimensions))
		index = (*C.FaissIndex)(unsafe.Pointer(flat))
	}
	if ret != 0 {
		return nil, fmt.Errorf("failed to create FAISS index: %s", faissLastError())
	}

	return &FAISSIndex{
		index:      index,
		dimensions: dimensions,
		metric:     metric,
		labels:     make([]int, 0),
	}, nil
}

func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// Add appends vectors labelled with the given chunk positions.
func (f *FAISSIndex) Add(ctx context.Context, positions []int, vectors [][]float32) error {
	if len(positions) != len(vectors) {
		return fmt.Errorf("positions and vectors length mismatch")
	}
	if len(positions) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(vectors)
	flat := make([]float32, n*f.dimensions)
	for i, vec := range vectors {
		if len(vec) != f.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), f.dimensions)
		}
		copy(flat[i*f.dimensions:(i+1)*f.dimensions], vec)
	}

	ret := C.faiss_Index_add(f.index, C.idx_t(n), (*C.float)(unsafe.Pointer(&flat[0])))
	if ret != 0 {
		return fmt.Errorf("failed to add vectors to FAISS index: %s", faissLastError())
	}
	f.labels = append(f.labels, positions...)
	return nil
}

// Search returns the k closest vectors in FAISS order. For MetricL2 FAISS reports squared
// distances; they are converted to Euclidean distance here.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), f.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if k <= 0 {
		return nil, nil
	}
	ntotal := int(C.faiss_Index_ntotal(f.index))
	if ntotal == 0 {
		return nil, nil
	}
	if k > ntotal {
		k = ntotal
	}

	distances := make([]float32, k)
	labels := make([]int64, k)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&query[0])),
		C.idx_t(k),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}

	results := make([]*VectorResult, 0, k)
	for i := 0; i < k; i++ {
		label := labels[i]
		if label < 0 || int(label) >= len(f.labels) {
			continue
		}
		score := float64(distances[i])
		if f.metric == MetricL2 {
			score = math.Sqrt(math.Max(0, score))
		}
		results = append(results, &VectorResult{Position: f.labels[label], Score: score})
	}
	return results, nil
}

type faissHeader struct {
	Dimensions int
	Metric     Metric
	Labels     []int
}

// Save writes the FAISS index to path+".faiss" and the label map to path+".labels".
func (f *FAISSIndex) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	cPath := C.CString(path + ".faiss")
	defer C.free(unsafe.Pointer(cPath))
	if ret := C.faiss_write_index_fname(f.index, cPath); ret != 0 {
		return fmt.Errorf("failed to save FAISS index: %s", faissLastError())
	}

	labelFile, err := os.Create(path + ".labels")
	if err != nil {
		return fmt.Errorf("create label file: %w", err)
	}
	defer labelFile.Close()
	header := faissHeader{Dimensions: f.dimensions, Metric: f.metric, Labels: f.labels}
	if err := gob.NewEncoder(labelFile).Encode(header); err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	return nil
}

// Load reads the index written by Save. Dimensions and metric must match.
// If the files do not exist, no error is returned and the index is unchanged.
func (f *FAISSIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	faissPath := path + ".faiss"
	if _, err := os.Stat(faissPath); os.IsNotExist(err) {
		return nil
	}

	labelFile, err := os.Open(path + ".labels")
	if err != nil {
		return fmt.Errorf("open label file: %w", err)
	}
	defer labelFile.Close()
	var header faissHeader
	if err := gob.NewDecoder(labelFile).Decode(&header); err != nil {
		return fmt.Errorf("decode labels: %w", err)
	}
	if header.Dimensions != f.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", header.Dimensions, f.dimensions)
	}
	if header.Metric != f.metric {
		return fmt.Errorf("metric mismatch: file was built with %s, index expects %s", header.Metric, f.metric)
	}

	cPath := C.CString(faissPath)
	defer C.free(unsafe.Pointer(cPath))
	var loaded *C.FaissIndex
	if ret := C.faiss_read_index_fname(cPath, 0, &loaded); ret != 0 {
		return fmt.Errorf("failed to load FAISS index: %s", faissLastError())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
	}
	f.index = loaded
	f.labels = header.Labels
	return nil
}

// Metric returns the metric the index scores with.
func (f *FAISSIndex) Metric() Metric {
	return f.metric
}

// Dimensions returns the vector dimension.
func (f *FAISSIndex) Dimensions() int {
	return f.dimensions
}

// Size returns the number of vectors in the index.
func (f *FAISSIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.labels)
}

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}
