package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiCompletion generates text with the Gemini API.
type GeminiCompletion struct {
	client *genai.Client
	model  string
}

// NewGeminiCompletion creates a Gemini API client for model. baseURL may be empty.
// The genai client does not retry content calls.
func NewGeminiCompletion(ctx context.Context, baseURL, apiKey, model string) (*GeminiCompletion, error) {
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
	return &GeminiCompletion{client: client, model: model}, nil
}

func (c *GeminiCompletion) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no response generated by %s", c.model)
	}
	return text, nil
}

// Ping fetches the model metadata.
func (c *GeminiCompletion) Ping(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", c.model, err)
	}
	return nil
}

func (c *GeminiCompletion) Model() string {
	return c.model
}
