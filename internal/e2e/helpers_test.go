package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"intellisearch/internal/httpapi"
	"intellisearch/internal/relay"
)

// newUpstream starts a fake inference provider.
func newUpstream(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// newRelayServer wires the real relay and HTTP layer against endpoint.
func newRelayServer(t *testing.T, endpoint, credential string, timeout time.Duration) *httptest.Server {
	t.Helper()
	return newLoggedRelayServer(t, endpoint, credential, timeout, io.Discard)
}

// newLoggedRelayServer is newRelayServer with relay and HTTP logs written to logw.
func newLoggedRelayServer(t *testing.T, endpoint, credential string, timeout time.Duration, logw io.Writer) *httptest.Server {
	t.Helper()
	logger := zerolog.New(logw)
	r := relay.NewWithConfig(relay.Config{
		Endpoint:   endpoint,
		Credential: credential,
		Timeout:    timeout,
		Retry:      relay.RetryPolicy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 2 * time.Second, HonorRetryAfter: true},
		Logger:     &logger,
	})
	mux, err := httpapi.NewMux(r, httpapi.Options{Logger: &logger, CORS: httpapi.CORSPolicy(false, nil)})
	if err != nil {
		t.Fatalf("new mux: %v", err)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// syncBuffer collects log output written from handler goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
