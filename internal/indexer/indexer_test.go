package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/pustaka/internal/config"
	"github.com/hyperjump/pustaka/internal/embedding"
	"github.com/hyperjump/pustaka/internal/models"
	"github.com/hyperjump/pustaka/internal/storage"
	"github.com/hyperjump/pustaka/internal/vector"
)

type memoryWriter struct {
	chunks []models.Chunk
	err    error
}

func (w *memoryWriter) ReplaceChunks(ctx context.Context, chunks []models.Chunk) error {
	if w.err != nil {
		return w.err
	}
	w.chunks = append([]models.Chunk(nil), chunks...)
	return nil
}

type countingEmbedder struct {
	embedding.Embedder
	batches []int
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches = append(c.batches, len(texts))
	return c.Embedder.EmbedBatch(ctx, texts)
}

func rawChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{
			Position: 100 + i,
			Title:    fmt.Sprintf("Tesis %d", i%3),
			Text:     fmt.Sprintf("  Kalimat   nomor %d\ttentang\npanen padi. ", i),
		}
	}
	return chunks
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	emb := &countingEmbedder{Embedder: embedding.NewMockEmbedder(8)}
	idx, err := vector.NewMemoryIndex(8, vector.MetricL2)
	require.NoError(t, err)
	w := &memoryWriter{}

	report, err := NewIndexer(w, emb, idx, WithBatchSize(4)).Build(ctx, rawChunks(10))
	require.NoError(t, err)

	assert.Equal(t, 10, report.Chunks)
	assert.Equal(t, 3, report.Documents)
	assert.Equal(t, 8, report.Dimensions)
	assert.Equal(t, vector.MetricL2, report.Metric)
	assert.Equal(t, []int{4, 4, 2}, emb.batches)
	assert.Equal(t, 10, idx.Size())

	require.Len(t, w.chunks, 10)
	for i, c := range w.chunks {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, models.DefaultAuthor, c.Author)
	}
	assert.Equal(t, "Kalimat nomor 0 tentang panen padi.", w.chunks[0].Text)

	// The chunk's own text is its nearest neighbour at distance ~0.
	q, err := emb.Embed(ctx, w.chunks[7].Text)
	require.NoError(t, err)
	hits, err := idx.Search(ctx, q, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 7, hits[0].Position)
	assert.InDelta(t, 0, hits[0].Score, 1e-5)
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()
	newIndex := func() vector.VectorIndex {
		idx, err := vector.NewMemoryIndex(8, vector.MetricInnerProduct)
		require.NoError(t, err)
		return idx
	}

	t.Run("no chunks", func(t *testing.T) {
		_, err := NewIndexer(&memoryWriter{}, embedding.NewMockEmbedder(8), newIndex()).Build(ctx, nil)
		assert.Error(t, err)
	})
	t.Run("non-empty index", func(t *testing.T) {
		idx := newIndex()
		require.NoError(t, idx.Add(ctx, []int{0}, [][]float32{make([]float32, 8)}))
		_, err := NewIndexer(&memoryWriter{}, embedding.NewMockEmbedder(8), idx).Build(ctx, rawChunks(2))
		assert.Error(t, err)
	})
	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := NewIndexer(&memoryWriter{}, embedding.NewMockEmbedder(4), newIndex()).Build(ctx, rawChunks(2))
		assert.Error(t, err)
	})
	t.Run("writer failure", func(t *testing.T) {
		w := &memoryWriter{err: errors.New("disk full")}
		_, err := NewIndexer(w, embedding.NewMockEmbedder(8), newIndex()).Build(ctx, rawChunks(2))
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestPrepare(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "data_chunk.csv")
	content := "judul,penulis,tahun,link,bagian,chunk_text\n" +
		"Banjir Rob,Sari,2021,http://repo/1,Bab 1,Banjir rob melanda pesisir utara.\n" +
		"Banjir Rob,Sari,2021,http://repo/1,Bab 2,Tanggul laut mengurangi genangan.\n" +
		"Kualitas Air,Budi,2019,,,Kadar nitrat sungai meningkat.\n"
	require.NoError(t, os.WriteFile(src, []byte(content), 0644))

	for _, metric := range []string{"l2", "ip"} {
		t.Run(metric, func(t *testing.T) {
			cfg := &config.Config{
				Source:    config.SourceConfig{Format: "csv", Path: src},
				Storage:   config.StorageConfig{DatabasePath: filepath.Join(dir, metric, "chunks.db"), VectorIndexPath: filepath.Join(dir, metric, "vectors.index")},
				Embedding: config.EmbeddingConfig{Provider: "mock", Dimensions: 16, BatchSize: 2},
				Vector:    config.VectorConfig{Metric: metric},
			}
			config.ApplyDefaults(cfg)

			report, err := Prepare(context.Background(), cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, 3, report.Chunks)
			assert.Equal(t, 2, report.Documents)

			store, err := storage.OpenChunkStore(context.Background(), cfg.Storage.DatabasePath)
			require.NoError(t, err)
			assert.Equal(t, 3, store.Len())
			c, ok := store.Get(2)
			require.True(t, ok)
			assert.Equal(t, models.DefaultURL, c.URL)

			loaded, err := vector.NewMemoryIndex(16, vector.Metric(metric))
			require.NoError(t, err)
			require.NoError(t, loaded.Load(cfg.Storage.VectorIndexPath))
			assert.Equal(t, 3, loaded.Size())
		})
	}
}

func TestPrepare_MissingSource(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Source:  config.SourceConfig{Format: "csv", Path: filepath.Join(dir, "missing.csv")},
		Storage: config.StorageConfig{DatabasePath: filepath.Join(dir, "chunks.db"), VectorIndexPath: filepath.Join(dir, "vectors.index")},
	}
	config.ApplyDefaults(cfg)
	_, err := Prepare(context.Background(), cfg, nil)
	assert.Error(t, err)
	_, statErr := os.Stat(cfg.Storage.VectorIndexPath)
	assert.True(t, os.IsNotExist(statErr))
}

type fakeCounter struct {
	chunks, documents int64
	err               error
}

func (f fakeCounter) CountChunks(ctx context.Context) (int64, error) { return f.chunks, f.err }

func (f fakeCounter) CountDocuments(ctx context.Context) (int64, error) { return f.documents, f.err }

func TestVerifyStored(t *testing.T) {
	report := &Report{Chunks: 10, Documents: 3}
	tests := []struct {
		name    string
		store   fakeCounter
		wantErr string
	}{
		{"match", fakeCounter{chunks: 10, documents: 3}, ""},
		{"missing rows", fakeCounter{chunks: 9, documents: 3}, "holds 9 chunks, expected 10"},
		{"document drift", fakeCounter{chunks: 10, documents: 2}, "holds 2 documents, expected 3"},
		{"query failure", fakeCounter{err: errors.New("database is locked")}, "database is locked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyStored(context.Background(), tt.store, report)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestVerifyStored_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "chunks.db"))
	require.NoError(t, err)
	defer db.Close()

	emb := embedding.NewMockEmbedder(8)
	idx, err := vector.NewMemoryIndex(8, vector.MetricL2)
	require.NoError(t, err)
	report, err := NewIndexer(db, emb, idx).Build(ctx, rawChunks(7))
	require.NoError(t, err)
	assert.NoError(t, VerifyStored(ctx, db, report))

	require.NoError(t, db.ReplaceChunks(ctx, nil))
	assert.ErrorContains(t, VerifyStored(ctx, db, report), "holds 0 chunks")
}
