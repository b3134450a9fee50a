package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"intellisearch/internal/relay"
	"intellisearch/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Search(ctx context.Context, query string) (string, error)
	Ready() bool
	Provider() string
	Model() string
}

type server struct {
	svc  Service
	opts Options
}

// NewMux builds the relay router.
func NewMux(svc Service, opts Options) (http.Handler, error) {
	opts = opts.withDefaults()
	s := &server{svc: svc, opts: opts}
	index, err := indexHandler(opts.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if opts.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORS.AllowedOrigins,
			AllowedMethods: opts.CORS.AllowedMethods,
			AllowedHeaders: opts.CORS.AllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, kindNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, kindMethodNotAllowed, "method "+r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/", index)
	r.Get("/status", s.handleStatus)
	r.Post("/search", s.handleSearch)
	r.Post("/api/search", s.handleSearch)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unconfigured"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r, nil
}

// handleStatus godoc
// @Summary      Relay status
// @Description  Reports the upstream provider, model and whether a credential is configured.
// @Tags         relay
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.StatusResponse{
		Message:  "IntelliSearch relay is running",
		Provider: s.svc.Provider(),
		Model:    s.svc.Model(),
		Ready:    s.svc.Ready(),
	})
}

// handleSearch godoc
// @Summary      Answer a question
// @Description  Relays a natural-language question to the inference provider and returns the generated answer.
// @Tags         relay
// @Accept       json
// @Produce      json
// @Param        request  body      types.SearchRequest  true  "Question"
// @Success      200      {object}  types.SearchResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      502      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Failure      504      {object}  types.ErrorResponse
// @Router       /search [post]
func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lvl := requestLogLevel(r, s.opts.LogLevel)
	log := s.opts.Logger

	query, msg := decodeSearchRequest(w, r, s.opts.MaxBodyBytes)
	if msg != "" {
		relayErrorsTotal.WithLabelValues(string(relay.KindInvalidRequest)).Inc()
		writeJSONError(w, http.StatusBadRequest, string(relay.KindInvalidRequest), msg)
		requestEvent(log, r, lvl, LevelInfo).Int("status", http.StatusBadRequest).Str("reason", msg).Msg("search rejected")
		return
	}
	requestEvent(log, r, lvl, LevelDebug).Int("query_len", len(query)).Msg("search start")

	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := joinContexts(s.opts.BaseContext, r.Context())
	defer cancel()
	answer, err := s.svc.Search(ctx, query)
	if err != nil {
		// Client went away or the server is shutting down: nobody to answer.
		if r.Context().Err() != nil || s.opts.BaseContext.Err() != nil {
			requestEvent(log, r, lvl, LevelInfo).Dur("dur", time.Since(start)).Msg("search abandoned")
			return
		}
		status, kind := writeRelayError(w, err)
		want := LevelInfo
		if status >= http.StatusInternalServerError {
			want = LevelError
		}
		requestEvent(log, r, lvl, want).Int("status", status).Str("kind", string(kind)).Err(err).Dur("dur", time.Since(start)).Msg("search end")
		return
	}
	writeJSON(w, http.StatusOK, types.SearchResponse{Response: answer})
	requestEvent(log, r, lvl, LevelInfo).Int("status", http.StatusOK).Int("response_len", len(answer)).Dur("dur", time.Since(start)).Msg("search end")
}

// decodeSearchRequest returns the raw query, or a client-facing message when
// the request is malformed. Emptiness is left to the relay.
func decodeSearchRequest(w http.ResponseWriter, r *http.Request, limit int64) (string, string) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			return "", "Content-Type must be application/json"
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	var body struct {
		Query json.RawMessage `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", "request body must be a JSON object"
	}
	if len(body.Query) == 0 || body.Query[0] != '"' {
		return "", "query must be a string"
	}
	var q string
	if err := json.Unmarshal(body.Query, &q); err != nil {
		return "", "query must be a string"
	}
	return q, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
