package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/hyperjump/pustaka/internal/config"
)

// NewCompletion builds the backend selected by cfg.Provider.
// Supported providers: openai (default, also Ollama), gemini, anthropic, mock.
func NewCompletion(ctx context.Context, cfg config.LLMConfig) (Completion, error) {
	key := ""
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAICompletion(cfg.BaseURL, key, cfg.Model), nil
	case "gemini":
		c, err := NewGeminiCompletion(ctx, cfg.BaseURL, key, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "anthropic":
		c, err := NewAnthropicCompletion(cfg.BaseURL, key, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "mock":
		return &EchoCompletion{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: openai, gemini, anthropic, mock)", cfg.Provider)
	}
}
