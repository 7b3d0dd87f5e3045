package models

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for requests rejected before any external call
// (empty query, non-positive top_k).
var ErrInvalidArgument = errors.New("invalid argument")

// Retrieval stages, in the order a query passes through them.
const (
	StageEmbedding          = "embedding"
	StageIndexSearch        = "index_search"
	StageMetadataResolution = "metadata_resolution"
	StageOrdering           = "ordering"
)

// RetrievalError reports a failed ranking step. The whole ranked list is discarded.
type RetrievalError struct {
	Stage string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// InitializationError reports a capability (retriever, synthesizer) that could not be loaded.
// It is not cached: the next request tries again.
type InitializationError struct {
	Component string
	Err       error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("%s initialization failed: %v", e.Component, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
