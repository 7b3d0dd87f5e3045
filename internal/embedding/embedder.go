// Package embedding provides text embedding via ONNX, OpenAI-compatible and Gemini backends, with caching.
package embedding

import "context"

// Embedder produces vector embeddings for text. Queries and chunks must be embedded
// by the same model so their vectors are comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
