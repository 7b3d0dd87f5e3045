package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/hyperjump/pustaka/internal/config"
)

// NewEmbedder builds the embedder selected by cfg.Provider and wraps it in a query cache.
// Supported providers: openai (default, also Ollama), gemini, onnx, mock.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	var inner Embedder
	switch cfg.Provider {
	case "openai", "":
		inner = NewOpenAIEmbedder(cfg.BaseURL, apiKey(cfg.APIKeyEnv), cfg.Model, cfg.Dimensions)
	case "gemini":
		e, err := NewGeminiEmbedder(ctx, cfg.BaseURL, apiKey(cfg.APIKeyEnv), cfg.Model, cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		inner = e
	case "onnx":
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		inner = e
	case "mock":
		inner = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, openai, gemini, mock)", cfg.Provider)
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}

func apiKey(env string) string {
	if env == "" {
		return ""
	}
	return os.Getenv(env)
}
