// Package llm wraps the text-completion backends used to synthesize answers.
package llm

import "context"

// Options are the sampling settings for one completion call.
type Options struct {
	Temperature     float64
	MaxOutputTokens int
}

// Completion generates text for a prompt.
type Completion interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	// Model returns the model name reported alongside answers.
	Model() string
}

// Pinger is implemented by backends that can check connectivity without generating text.
type Pinger interface {
	Ping(ctx context.Context) error
}
