// Package ai is the tailoring client: it budgets, caches and coalesces prompts before they
// reach a generative backend, and decodes the answers into strict types.
package ai

import "context"

// Request is a single completion call.
type Request struct {
	System string
	Prompt string
	// JSON asks the backend for an application/json answer.
	JSON bool
}

// Completion is the raw backend answer.
type Completion struct {
	Text         string
	PromptTokens int
	OutputTokens int
}

// Backend is implemented by provider adapters. Errors must wrap one of ErrRateLimited,
// ErrUnavailable, ErrInvalidResponse or ErrUnauthorized.
type Backend interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req Request) (*Completion, error)
}
