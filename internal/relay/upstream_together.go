package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTogetherEndpoint is the Together inference endpoint whose response
// carries the completion at output.choices[0].text.
const DefaultTogetherEndpoint = "https://api.together.xyz/inference"

// maxUpstreamBody caps how much of a provider response is read.
const maxUpstreamBody = 4 << 20

// togetherUpstream implements Upstream over plain HTTP.
type togetherUpstream struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// NewTogetherUpstream constructs the HTTP adapter. The client carries no
// Timeout of its own; every attempt is bounded by its context.
func NewTogetherUpstream(endpoint string, connectTimeout time.Duration) Upstream {
	if endpoint == "" {
		endpoint = DefaultTogetherEndpoint
	}
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &togetherUpstream{
		endpoint:   endpoint,
		httpClient: &http.Client{Transport: tr, Timeout: 0},
		now:        time.Now,
	}
}

func (u *togetherUpstream) Name() string { return "together" }

type togetherRequest struct {
	Model             string  `json:"model"`
	Prompt            string  `json:"prompt"`
	MaxTokens         int     `json:"max_tokens"`
	Temperature       float64 `json:"temperature"`
	TopK              int     `json:"top_k"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

type togetherResponse struct {
	Output *struct {
		Choices []struct {
			Text *string `json:"text"`
		} `json:"choices"`
	} `json:"output"`
}

func (u *togetherUpstream) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	body, err := json.Marshal(togetherRequest{
		Model:             req.Model,
		Prompt:            req.Prompt,
		MaxTokens:         req.Params.MaxTokens,
		Temperature:       req.Params.Temperature,
		TopK:              req.Params.TopK,
		TopP:              req.Params.TopP,
		RepetitionPenalty: req.Params.RepetitionPenalty,
	})
	if err != nil {
		return CompletionResult{}, errUnknown(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return CompletionResult{}, errUnknown(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}

	resp, err := u.httpClient.Do(httpReq)
	if err != nil {
		return CompletionResult{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		retryAfter, _ := ParseRetryAfter(resp.Header.Get("Retry-After"), u.now())
		return CompletionResult{Status: resp.StatusCode}, errRateLimited(retryAfter)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		e := errUpstreamStatus(resp.StatusCode)
		e.Err = fmt.Errorf("upstream body: %s", redact(strings.TrimSpace(string(b)), req.Credential))
		return CompletionResult{Status: resp.StatusCode}, e
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return CompletionResult{Status: resp.StatusCode}, classifyTransportError(ctx, err)
	}
	text, err := extractTogetherText(raw)
	if err != nil {
		return CompletionResult{Status: resp.StatusCode}, errInvalidUpstream(err)
	}
	return CompletionResult{Text: text, Status: resp.StatusCode}, nil
}

// extractTogetherText reads output.choices[0].text and rejects anything else.
func extractTogetherText(raw []byte) (string, error) {
	var parsed togetherResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode upstream json: %w", err)
	}
	if parsed.Output == nil {
		return "", errors.New("missing output")
	}
	if len(parsed.Output.Choices) == 0 {
		return "", errors.New("missing output.choices")
	}
	t := parsed.Output.Choices[0].Text
	if t == nil {
		return "", errors.New("missing output.choices[0].text")
	}
	text := strings.TrimSpace(*t)
	if text == "" {
		return "", errors.New("empty output.choices[0].text")
	}
	return text, nil
}

// classifyTransportError separates attempt timeouts from connection
// failures. Cancellation of the caller's context is returned as is.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return errTimeout(err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errTimeout(err)
	}
	return errTransport(err)
}
