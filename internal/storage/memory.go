package storage

import (
	"fmt"

	"github.com/hyperjump/pustaka/internal/models"
)

// MemoryChunkStore is an immutable, slice-backed ChunkStore. Safe for concurrent reads.
type MemoryChunkStore struct {
	chunks    []models.Chunk
	documents int
}

// NewMemoryChunkStore builds a store from chunks ordered by position. Defaults are applied
// to missing metadata; a gap or reordering in positions is an error.
func NewMemoryChunkStore(chunks []models.Chunk) (*MemoryChunkStore, error) {
	owned := make([]models.Chunk, len(chunks))
	titles := make(map[string]struct{})
	for i, c := range chunks {
		if c.Position != i {
			return nil, fmt.Errorf("chunk at index %d has position %d", i, c.Position)
		}
		c.ApplyDefaults()
		owned[i] = c
		titles[c.Title] = struct{}{}
	}
	return &MemoryChunkStore{chunks: owned, documents: len(titles)}, nil
}

// Get returns a copy-safe pointer to the chunk at position.
func (s *MemoryChunkStore) Get(position int) (*models.Chunk, bool) {
	if position < 0 || position >= len(s.chunks) {
		return nil, false
	}
	c := s.chunks[position]
	return &c, true
}

func (s *MemoryChunkStore) Len() int {
	return len(s.chunks)
}

func (s *MemoryChunkStore) DocumentCount() int {
	return s.documents
}
