package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("blackbox tests build the binary; skipped in -short mode")
	}
	binPath := filepath.Join(t.TempDir(), "intellisearch")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/intellisearch")
	cmd.Dir = projectRootFromThisFile(t)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

// fakeTogether answers every completion with text.
func fakeTogether(t *testing.T, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-blackbox" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b, _ := json.Marshal(map[string]any{"output": map[string]any{"choices": []map[string]string{{"text": text}}}})
		_, _ = w.Write(b)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// blackboxEnv returns a minimal environment that does not inherit any
// credential from the developer's shell.
func blackboxEnv(extra ...string) []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "TOGETHER_API_KEY=") || strings.HasPrefix(kv, "GEMINI_API_KEY=") || strings.HasPrefix(kv, "INTELLISEARCH_") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, extra...)
}

// syncBuffer collects child process output while the test reads it.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type serverProc struct {
	cmd    *exec.Cmd
	base   string
	stderr *syncBuffer
}

func startServer(t *testing.T, bin string, env []string) *serverProc {
	t.Helper()
	port := findFreePort(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	stderr := &syncBuffer{}
	cmd := exec.Command(bin, "serve", "--env-file", "", "--addr", fmt.Sprintf("127.0.0.1:%d", port))
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill(); _, _ = cmd.Process.Wait() })
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
	return &serverProc{cmd: cmd, base: base, stderr: stderr}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func postJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func TestBlackbox_Flow(t *testing.T) {
	bin := buildBinary(t)
	up := fakeTogether(t, " 4 ")
	sp := startServer(t, bin, blackboxEnv("TOGETHER_API_KEY=sk-blackbox", "INTELLISEARCH_ENDPOINT="+up.URL))

	resp, body := get(t, sp.base+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz %d %s", resp.StatusCode, body)
	}

	resp, body = postJSON(t, sp.base+"/search", []byte(`{"query":"What is 2+2?"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/search %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("/search content-type=%s", ct)
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Response != "4" {
		t.Fatalf("/search body=%s err=%v", body, err)
	}

	resp, body = get(t, sp.base+"/metrics")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("intellisearch_relay_searches_total")) {
		t.Fatalf("/metrics %d", resp.StatusCode)
	}

	// ask talks to the running server.
	ask := exec.Command(bin, "ask", "--env-file", "", "--base-url", sp.base, "What", "is", "2+2?")
	ask.Env = blackboxEnv()
	askOut, err := ask.CombinedOutput()
	if err != nil {
		t.Fatalf("ask: %v\n%s", err, askOut)
	}
	if strings.TrimSpace(string(askOut)) != "4" {
		t.Fatalf("ask output=%q", askOut)
	}

	if strings.Contains(sp.stderr.String(), "sk-blackbox") {
		t.Fatalf("credential appeared in server logs")
	}
}

func TestBlackbox_NoCredential(t *testing.T) {
	bin := buildBinary(t)
	up := fakeTogether(t, "unused")
	sp := startServer(t, bin, blackboxEnv("INTELLISEARCH_ENDPOINT="+up.URL))

	resp, body := get(t, sp.base+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz %d %s", resp.StatusCode, body)
	}
	resp, body = postJSON(t, sp.base+"/search", []byte(`{"query":"hello"}`))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("/search %d %s", resp.StatusCode, body)
	}
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Error != "ConfigurationError" {
		t.Fatalf("/search body=%s", body)
	}

	ask := exec.Command(bin, "ask", "--env-file", "", "--base-url", sp.base, "hello")
	ask.Env = blackboxEnv()
	out, err := ask.CombinedOutput()
	if err == nil {
		t.Fatalf("ask should exit non-zero")
	}
	if !strings.HasPrefix(string(out), "error: ") {
		t.Fatalf("ask output=%q", out)
	}
}

func TestBlackbox_InvalidConfigExits(t *testing.T) {
	bin := buildBinary(t)
	cmd := exec.Command(bin, "serve", "--env-file", "", "--provider", "bogus")
	cmd.Env = blackboxEnv()
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit")
	}
	if !strings.Contains(string(out), "unknown provider") {
		t.Fatalf("output=%q", out)
	}
}
