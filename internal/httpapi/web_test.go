package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIndexServesWidget(t *testing.T) {
	w := httptest.NewRecorder()
	newTestMux(t, &mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type=%s", ct)
	}
	body := w.Body.String()
	for _, want := range []string{`id="query"`, "marked", "highlight", "searchURL"} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestIndexUsesPublicBaseURL(t *testing.T) {
	h, err := NewMux(&mockService{}, Options{PublicBaseURL: "https://relay.example/"})
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(w.Body.String(), "relay.example") {
		t.Fatalf("base url not rendered: %s", w.Body.String())
	}
}

func TestIndexSanitizesRenderedMarkdown(t *testing.T) {
	w := httptest.NewRecorder()
	newTestMux(t, &mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	body := w.Body.String()
	if !strings.Contains(body, "purify.min.js") {
		t.Fatalf("sanitizer script not loaded")
	}
	if !strings.Contains(body, "DOMPurify.sanitize(window.marked.parse(text))") {
		t.Fatalf("markdown rendered without sanitizing")
	}
	if strings.Count(body, "innerHTML") != 1 {
		t.Fatalf("unexpected innerHTML sinks: %d", strings.Count(body, "innerHTML"))
	}
}
