package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAICompletion calls an OpenAI-compatible chat completions endpoint, by default a
// local Ollama server.
type OpenAICompletion struct {
	client openai.Client
	model  string
}

// NewOpenAICompletion creates a completion client for model at baseURL.
func NewOpenAICompletion(baseURL, apiKey, model string) *OpenAICompletion {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAICompletion{client: openai.NewClient(opts...), model: model}
}

// Complete sends prompt as a single user message.
func (c *OpenAICompletion) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxOutputTokens))
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response generated by %s", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping lists the server's models, the connectivity check Ollama answers without loading a model.
func (c *OpenAICompletion) Ping(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *OpenAICompletion) Model() string {
	return c.model
}
