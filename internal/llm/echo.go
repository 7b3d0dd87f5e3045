package llm

import (
	"context"
	"sync"
)

// EchoCompletion is a deterministic Completion for tests and offline runs. It returns
// Response (or the prompt when Response is empty), or Err when set.
type EchoCompletion struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

func (e *EchoCompletion) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	e.prompts = append(e.prompts, prompt)
	e.mu.Unlock()
	if e.Err != nil {
		return "", e.Err
	}
	if e.Response != "" {
		return e.Response, nil
	}
	return prompt, nil
}

// Prompts returns the prompts received so far.
func (e *EchoCompletion) Prompts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.prompts...)
}

func (e *EchoCompletion) Ping(ctx context.Context) error {
	return e.Err
}

func (e *EchoCompletion) Model() string {
	return "echo"
}
