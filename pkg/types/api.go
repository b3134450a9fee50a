package types

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	// Required free-text question. Leading and trailing whitespace is ignored.
	// example: What is 2+2?
	Query string `json:"query" example:"What is 2+2?"`
}

// SearchResponse is returned by POST /search on success.
type SearchResponse struct {
	// Trimmed completion text, usually markdown.
	// example: 4
	Response string `json:"response" example:"4"`
}

// ErrorResponse is the consistent JSON error payload.
type ErrorResponse struct {
	// Error kind, one of InvalidRequest, ConfigurationError, UpstreamError,
	// Timeout, InvalidUpstreamResponse, ServiceUnavailable, UnknownError.
	// example: InvalidRequest
	Error string `json:"error" example:"InvalidRequest"`
	// Human-readable message safe to show to end users.
	// example: query must be a non-empty string
	Message string `json:"message" example:"query must be a non-empty string"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// example: IntelliSearch relay is running
	Message string `json:"message" example:"IntelliSearch relay is running"`
	// Upstream inference provider.
	// example: together
	Provider string `json:"provider" example:"together"`
	// Model identifier sent upstream.
	// example: meta-llama/Meta-Llama-3-70B-Instruct-Turbo
	Model string `json:"model" example:"meta-llama/Meta-Llama-3-70B-Instruct-Turbo"`
	// Whether an inference credential is configured.
	// example: true
	Ready bool `json:"ready" example:"true"`
}
