package core

import "context"

// CompletionProvider turns a prompt into natural-language text. It is an
// opaque, possibly-failing dependency; errors are classified via the
// sentinels in errors.go.
type CompletionProvider interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
}

type CompletionOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

type Model struct {
	ID   string
	Name string
}
