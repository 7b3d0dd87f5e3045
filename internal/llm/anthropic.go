package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicCompletion generates text with the Claude Messages API.
type AnthropicCompletion struct {
	client anthropic.Client
	model  string
}

// NewAnthropicCompletion creates a Messages API client for model. baseURL may be empty.
func NewAnthropicCompletion(baseURL, apiKey, model string) (*AnthropicCompletion, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicCompletion{client: anthropic.NewClient(opts...), model: model}, nil
}

func (c *AnthropicCompletion) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(opts.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("messages call failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("no response generated by %s", c.model)
	}
	return out.String(), nil
}

func (c *AnthropicCompletion) Model() string {
	return c.model
}
