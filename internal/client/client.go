package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"intellisearch/pkg/types"
)

// DefaultBaseURL is used when neither a flag nor INTELLISEARCH_BASE_URL is set.
const DefaultBaseURL = "http://127.0.0.1:8080"

// Client talks to the relay search endpoint.
type Client struct {
	BaseURL string
	Client  *http.Client
}

// New constructs a client. The timeout covers the relay's own retries.
func New(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 3 * time.Minute},
	}
}

// APIError is a non-2xx answer from the relay.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Kind != "":
		return e.Kind
	default:
		return fmt.Sprintf("http %d", e.Status)
	}
}

// Search calls POST /search and returns the answer text.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	endpoint, err := c.resolve("search")
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(types.SearchRequest{Query: query})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		var e types.ErrorResponse
		_ = json.Unmarshal(body, &e)
		return "", &APIError{Status: resp.StatusCode, Kind: e.Error, Message: e.Message}
	}
	var out types.SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Response, nil
}

// resolve joins path onto BaseURL, keeping any path prefix the relay is
// mounted under.
func (c *Client) resolve(path string) (string, error) {
	base, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + "/")
	if err != nil {
		return "", err
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base url must be absolute: %q", c.BaseURL)
	}
	rel, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}
