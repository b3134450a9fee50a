package relay

import "context"

// Upstream abstracts the inference provider used by the Relay.
type Upstream interface {
	// Name identifies the provider in logs and metrics (e.g. "together").
	Name() string
	// Complete performs exactly one attempt. Implementations must honor ctx
	// cancellation and return *Error values from the relay taxonomy.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest is the provider-neutral request for one attempt.
type CompletionRequest struct {
	Model      string
	Prompt     string
	Params     Params
	Credential string
	// RequestID correlates the attempt with relay logs.
	RequestID string
}

// CompletionResult is the raw text extracted from the provider response.
type CompletionResult struct {
	Text   string
	Status int
}
