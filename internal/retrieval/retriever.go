// Package retrieval ranks corpus chunks against a query by vector similarity.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/pustaka/internal/embedding"
	"github.com/hyperjump/pustaka/internal/models"
	"github.com/hyperjump/pustaka/internal/storage"
	"github.com/hyperjump/pustaka/internal/vector"
)

// orderingTolerance absorbs float rounding when checking that similarities do not increase.
const orderingTolerance = 1e-9

// Retriever combines the embedder, the vector index and the chunk store into a ranked list.
// It holds no per-request state and is safe for concurrent use.
type Retriever struct {
	store    storage.ChunkStore
	embedder embedding.Embedder
	index    vector.VectorIndex
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for stage timings and dropped hits.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever over already-loaded resources.
func NewRetriever(store storage.ChunkStore, embedder embedding.Embedder, index vector.VectorIndex, opts ...Option) *Retriever {
	r := &Retriever{
		store:    store,
		embedder: embedder,
		index:    index,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search returns at most topK chunks ordered by non-increasing similarity. Results keep the
// index's native order; an order that would increase similarity fails the request rather
// than being re-sorted. Hits whose position is outside the chunk store are dropped with a
// warning. Any embedder or index error discards the whole list.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]models.ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", models.ErrInvalidArgument)
	}
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be at least 1", models.ErrInvalidArgument)
	}

	start := time.Now()
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &models.RetrievalError{Stage: models.StageEmbedding, Err: err}
	}
	if len(queryVec) != r.index.Dimensions() {
		return nil, &models.RetrievalError{
			Stage: models.StageEmbedding,
			Err:   fmt.Errorf("query embedding has %d dimensions, index expects %d", len(queryVec), r.index.Dimensions()),
		}
	}
	r.logger.Debug("stage done", zap.String("stage", models.StageEmbedding), zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	hits, err := r.index.Search(ctx, queryVec, topK)
	if err != nil {
		return nil, &models.RetrievalError{Stage: models.StageIndexSearch, Err: err}
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}
	r.logger.Debug("stage done", zap.String("stage", models.StageIndexSearch),
		zap.Int("hits", len(hits)), zap.Duration("elapsed", time.Since(start)))

	metric := r.index.Metric()
	results := make([]models.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := r.store.Get(hit.Position)
		if !ok {
			r.logger.Warn("dropping hit outside chunk store",
				zap.Int("position", hit.Position),
				zap.Int("store_len", r.store.Len()))
			continue
		}
		sim := metric.Similarity(hit.Score)
		if n := len(results); n > 0 && sim > results[n-1].Similarity+orderingTolerance {
			return nil, &models.RetrievalError{
				Stage: models.StageOrdering,
				Err: fmt.Errorf("similarity increased from %.6f to %.6f at rank %d",
					results[n-1].Similarity, sim, n),
			}
		}
		results = append(results, models.ScoredChunk{Chunk: *chunk, Similarity: sim, Rank: len(results)})
	}
	r.logger.Debug("stage done", zap.String("stage", models.StageMetadataResolution), zap.Int("results", len(results)))
	return results, nil
}
