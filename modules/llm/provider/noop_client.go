package provider

import "context"

// NoopClient returns a canned response without calling any network service.
// Used by cmd/scheduler when no Anthropic API key is configured.
type NoopClient struct {
	Response string
}

// NewNoopClient creates a client that always returns the given response text.
func NewNoopClient(response string) *NoopClient {
	return &NoopClient{Response: response}
}

func (c *NoopClient) Complete(ctx context.Context, req Request) (*Response, error) {
	return &Response{
		Text:  c.Response,
		Usage: Usage{InputTokens: len(req.UserPrompt) / 4, OutputTokens: len(c.Response) / 4},
	}, nil
}
