// Package indexer builds the chunk database and the vector index from a tabular chunk source.
package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/pustaka/internal/config"
	"github.com/hyperjump/pustaka/internal/embedding"
	"github.com/hyperjump/pustaka/internal/models"
	"github.com/hyperjump/pustaka/internal/storage"
	"github.com/hyperjump/pustaka/internal/vector"
	"github.com/hyperjump/pustaka/pkg/utils"
)

// DefaultBatchSize is the number of chunk texts embedded per request.
const DefaultBatchSize = 32

// ChunkWriter persists the prepared chunks.
type ChunkWriter interface {
	ReplaceChunks(ctx context.Context, chunks []models.Chunk) error
}

// StoredCounter reports what the chunk database holds after a build.
type StoredCounter interface {
	CountChunks(ctx context.Context) (int64, error)
	CountDocuments(ctx context.Context) (int64, error)
}

// Indexer embeds chunks and writes them to the chunk database and a vector index.
type Indexer struct {
	writer    ChunkWriter
	embedder  embedding.Embedder
	index     vector.VectorIndex
	batchSize int
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for progress output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithBatchSize sets how many texts are embedded per call. Non-positive values keep the default.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// NewIndexer creates an indexer. The index must be empty and built with the serving metric.
func NewIndexer(writer ChunkWriter, embedder embedding.Embedder, index vector.VectorIndex, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		writer:    writer,
		embedder:  embedder,
		index:     index,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Report summarizes a build.
type Report struct {
	Chunks     int
	Documents  int
	Dimensions int
	Metric     vector.Metric
	Elapsed    time.Duration
}

// Build normalizes the chunks, embeds them in batches and fills the index and the chunk
// database. Chunks are renumbered 0..n-1 in input order so a chunk's position is its vector label.
func (idx *Indexer) Build(ctx context.Context, chunks []models.Chunk) (*Report, error) {
	start := time.Now()
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to index")
	}
	if idx.index.Size() != 0 {
		return nil, fmt.Errorf("vector index already holds %d vectors", idx.index.Size())
	}

	prepared := make([]models.Chunk, len(chunks))
	texts := make([]string, len(chunks))
	positions := make([]int, len(chunks))
	titles := make(map[string]struct{})
	for i, c := range chunks {
		c.Position = i
		c.Text = CleanChunkText(c.Text)
		c.ApplyDefaults()
		prepared[i] = c
		texts[i] = c.Text
		positions[i] = i
		titles[c.Title] = struct{}{}
	}
	idx.logger.Info("chunks prepared", zap.Int("chunks", len(prepared)), zap.Int("documents", len(titles)))

	for lo := 0; lo < len(texts); lo += idx.batchSize {
		hi := min(lo+idx.batchSize, len(texts))
		vecs, err := idx.embedder.EmbedBatch(ctx, texts[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", lo, hi-1, err)
		}
		if len(vecs) != hi-lo {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), hi-lo)
		}
		for _, v := range vecs {
			utils.NormalizeL2(v)
		}
		if err := idx.index.Add(ctx, positions[lo:hi], vecs); err != nil {
			return nil, fmt.Errorf("index chunks %d-%d: %w", lo, hi-1, err)
		}
		idx.logger.Debug("batch embedded", zap.Int("from", lo), zap.Int("to", hi-1))
	}
	idx.logger.Info("embeddings created",
		zap.Int("vectors", idx.index.Size()),
		zap.Int("dimensions", idx.index.Dimensions()),
		zap.String("metric", string(idx.index.Metric())))

	if err := idx.writer.ReplaceChunks(ctx, prepared); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}
	return &Report{
		Chunks:     len(prepared),
		Documents:  len(titles),
		Dimensions: idx.index.Dimensions(),
		Metric:     idx.index.Metric(),
		Elapsed:    time.Since(start),
	}, nil
}

// VerifyStored reads the counts back from the chunk database and fails when they disagree
// with the build report. A mismatch would misattribute metadata at serving time.
func VerifyStored(ctx context.Context, store StoredCounter, report *Report) error {
	chunks, err := store.CountChunks(ctx)
	if err != nil {
		return fmt.Errorf("count stored chunks: %w", err)
	}
	if int(chunks) != report.Chunks {
		return fmt.Errorf("chunk database holds %d chunks, expected %d", chunks, report.Chunks)
	}
	docs, err := store.CountDocuments(ctx)
	if err != nil {
		return fmt.Errorf("count stored documents: %w", err)
	}
	if int(docs) != report.Documents {
		return fmt.Errorf("chunk database holds %d documents, expected %d", docs, report.Documents)
	}
	return nil
}

// Prepare runs the whole offline build from cfg: load the source, embed, and write the chunk
// database and the vector index to their configured paths.
func Prepare(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	logger.Info("[1/4] loading source", zap.String("format", cfg.Source.Format), zap.String("path", cfg.Source.Path))
	chunks, err := storage.LoadSource(ctx, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	logger.Info("source loaded", zap.Int("chunks", len(chunks)))

	metric, err := vector.ParseMetric(cfg.Vector.Metric)
	if err != nil {
		return nil, err
	}
	index, err := vector.NewVectorIndex(cfg.Vector.IndexType, cfg.Embedding.Dimensions, metric)
	if err != nil {
		return nil, err
	}
	defer index.Close()

	emb, err := embedding.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	defer emb.Close()
	if emb.Dimensions() != index.Dimensions() {
		return nil, fmt.Errorf("embedder produces %d dimensions but index expects %d", emb.Dimensions(), index.Dimensions())
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	logger.Info("[2/4] creating embeddings", zap.String("provider", cfg.Embedding.Provider), zap.Int("batch_size", cfg.Embedding.BatchSize))
	idx := NewIndexer(store, emb, index, WithBatchSize(cfg.Embedding.BatchSize), WithLogger(logger))
	report, err := idx.Build(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if err := VerifyStored(ctx, store, report); err != nil {
		return nil, err
	}
	logger.Info("[3/4] chunks stored",
		zap.String("path", cfg.Storage.DatabasePath),
		zap.Int("chunks", report.Chunks),
		zap.Int("documents", report.Documents))
	if err := index.Save(cfg.Storage.VectorIndexPath); err != nil {
		return nil, fmt.Errorf("save vector index: %w", err)
	}
	logger.Info("[4/4] vector index saved",
		zap.String("path", cfg.Storage.VectorIndexPath),
		zap.String("type", index.Type()),
		zap.Int("vectors", index.Size()))
	report.Elapsed = time.Since(start)
	return report, nil
}
