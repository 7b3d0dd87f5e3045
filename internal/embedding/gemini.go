package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hyperjump/pustaka/pkg/utils"
)

// GeminiEmbedder embeds text with a Gemini embedding model, requesting the configured
// output dimensionality.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGeminiEmbedder creates a Gemini API client for model. baseURL may be empty.
func NewGeminiEmbedder(ctx context.Context, baseURL, apiKey, model string, dimensions int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model, dimensions: dimensions}, nil
}

// Embed returns the L2-normalized embedding for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in one request; Gemini returns one embedding per content in order.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}
	outputDim := int32(e.dimensions)
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts", len(texts))
	}

	out := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) != e.dimensions {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d", e.dimensions)
		}
		vec := make([]float32, len(emb.Values))
		copy(vec, emb.Values)
		// Truncated Gemini embeddings are not unit length.
		utils.NormalizeL2(vec)
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for GeminiEmbedder.
func (e *GeminiEmbedder) Close() error {
	return nil
}
