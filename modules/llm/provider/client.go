// Package provider wraps the LLM backend behind a small interface so the
// scheduler never depends on a concrete vendor SDK.
package provider

import "context"

// Usage reports token accounting for a single completion, used by the
// optimizer to update its efficiency estimate and by the scheduler to
// enforce spend budgets.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Request is a single batched analysis call: one system prompt describing
// the tier's task, and a user prompt containing the batch of jobs to
// analyze plus the embedded security token (modules/llm/security).
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response is the raw completion plus usage accounting.
type Response struct {
	Text  string
	Usage Usage
}

// Client is the LLM backend boundary. Implementations: Anthropic (real),
// Noop (used when no API key is configured).
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
