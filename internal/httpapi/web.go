package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
)

//go:embed web/index.html
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

type indexData struct {
	// SearchURL is the absolute or same-origin URL of the search endpoint.
	SearchURL string
}

// indexHandler renders the search widget once; the page only depends on
// the configured base URL.
func indexHandler(publicBaseURL string) (http.HandlerFunc, error) {
	var buf bytes.Buffer
	data := indexData{SearchURL: strings.TrimRight(publicBaseURL, "/") + "/search"}
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	page := buf.Bytes()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(page)
	}, nil
}
