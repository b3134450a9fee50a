package relay

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

const retryInfoType = "type.googleapis.com/google.rpc.RetryInfo"

// geminiUpstream implements Upstream with the Google Gen AI SDK.
// The SDK client is built on first use and reused while the credential
// stays the same.
type geminiUpstream struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	client    *genai.Client
	clientKey string
}

// NewGeminiUpstream constructs the Gemini adapter. baseURL overrides the API
// host and is empty in production.
func NewGeminiUpstream(baseURL string, httpClient *http.Client) Upstream {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &geminiUpstream{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (g *geminiUpstream) Name() string { return "gemini" }

func (g *geminiUpstream) clientFor(ctx context.Context, credential string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil && g.clientKey == credential {
		return g.client, nil
	}
	cfg := &genai.ClientConfig{
		APIKey:     credential,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL + "/"}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	g.client, g.clientKey = client, credential
	return client, nil
}

func (g *geminiUpstream) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	client, err := g.clientFor(ctx, req.Credential)
	if err != nil {
		return CompletionResult{}, errUnknown(errors.New(redact(err.Error(), req.Credential)))
	}

	gen := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Params.Temperature)),
		TopP:            genai.Ptr(float32(req.Params.TopP)),
		TopK:            genai.Ptr(float32(req.Params.TopK)),
		MaxOutputTokens: int32(req.Params.MaxTokens),
	}
	result, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), gen)
	if err != nil {
		return CompletionResult{}, classifyGeminiError(ctx, err, req.Credential)
	}
	if result == nil || len(result.Candidates) == 0 {
		return CompletionResult{Status: http.StatusOK}, errInvalidUpstream(errors.New("missing candidates"))
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return CompletionResult{Status: http.StatusOK}, errInvalidUpstream(errors.New("empty candidate text"))
	}
	return CompletionResult{Text: text, Status: http.StatusOK}, nil
}

func classifyGeminiError(ctx context.Context, err error, credential string) error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return classifyTransportError(ctx, err)
	}
	var e *Error
	if apiErr.Code == http.StatusTooManyRequests {
		e = errRateLimited(geminiRetryDelay(apiErr.Details))
	} else {
		e = errUpstreamStatus(apiErr.Code)
	}
	e.Err = errors.New(redact(apiErr.Error(), credential))
	return e
}

// geminiRetryDelay reads google.rpc.RetryInfo.retryDelay ("12s", "1.5s")
// from the error details. Zero means no hint.
func geminiRetryDelay(details []map[string]any) time.Duration {
	for _, d := range details {
		if t, _ := d["@type"].(string); t != retryInfoType {
			continue
		}
		s, _ := d["retryDelay"].(string)
		if dur, err := time.ParseDuration(s); err == nil && dur > 0 {
			return dur
		}
	}
	return 0
}
