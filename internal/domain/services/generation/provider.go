package generation

import (
	"context"
)

// Provider defines the interface that all generation providers must
// implement. This abstraction allows supporting multiple model vendors while
// keeping the job manager provider-agnostic.
type Provider interface {
	// Generate performs one blocking generation call and returns the raw
	// response text. Implementations must honor ctx cancellation: when the
	// job manager's timeout wins the race, the context is cancelled and the
	// underlying network resources should be released.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider name (e.g., "anthropic", "lorem")
	Name() string

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}

// Request contains the parameters for a generation call.
type Request struct {
	// Model is the model identifier (e.g., "claude-3-7-sonnet-20250219")
	Model string

	// System is the system prompt establishing the output contract
	// (file headers plus fenced blocks).
	System string

	// Prompt is the assembled user message: brief summary plus conversation
	// history.
	Prompt string

	// MaxTokens bounds the response size. Zero means provider default.
	MaxTokens int
}

// Response contains the provider's raw output.
type Response struct {
	// Text is the raw response body the extractor parses.
	Text string

	// Model is the model that actually served the request.
	Model string

	// InputTokens and OutputTokens are usage figures when the provider
	// reports them, zero otherwise.
	InputTokens  int
	OutputTokens int

	// StopReason indicates why generation stopped (e.g., "end_turn").
	StopReason string
}
