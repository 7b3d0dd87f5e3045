// Package storage holds the chunk store: position-addressed chunk metadata loaded once at startup.
package storage

import "github.com/hyperjump/pustaka/internal/models"

// ChunkStore resolves a chunk position to its metadata. Positions are dense, 0..Len()-1,
// and match the labels of the vector index built from the same corpus.
type ChunkStore interface {
	// Get returns the chunk at position, or false when position is out of range.
	Get(position int) (*models.Chunk, bool)
	Len() int
	// DocumentCount returns the number of distinct titles.
	DocumentCount() int
}
