package relay

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Relay validates queries, builds prompts and performs the upstream call.
// It holds no mutable state and is safe for concurrent use.
type Relay struct {
	upstream   Upstream
	model      string
	credential string
	timeout    time.Duration
	retry      RetryPolicy
	log        zerolog.Logger
	newID      func() string
}

// New constructs a Together-backed Relay with default retry and timeout.
func New(credential string) *Relay {
	return NewWithConfig(Config{Credential: credential, Retry: DefaultRetryPolicy()})
}

func newSearchID() string { return uuid.NewString() }

// Ready reports whether a credential is configured.
func (r *Relay) Ready() bool { return r.credential != "" }

// Provider returns the upstream provider name.
func (r *Relay) Provider() string { return r.upstream.Name() }

// Model returns the configured model identifier.
func (r *Relay) Model() string { return r.model }

// Search answers a single query. The returned text is trimmed and never
// empty on success; failures are always *Error values.
func (r *Relay) Search(ctx context.Context, query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		searchesTotal.WithLabelValues("none", string(KindInvalidRequest)).Inc()
		return "", ErrInvalidRequest("query must be a non-empty string")
	}
	if r.credential == "" {
		searchesTotal.WithLabelValues("none", string(KindConfiguration)).Inc()
		r.log.Error().Msg("search rejected: inference credential is not configured")
		return "", ErrConfiguration("inference service is not configured")
	}

	p := BuildPrompt(q)
	id := r.newID()
	provider := r.upstream.Name()
	log := r.log.With().Str("search_id", id).Str("provider", provider).Logger()
	start := time.Now()
	log.Info().Int("query_len", len(q)).Str("profile", string(p.Profile)).Msg("search start")

	var text string
	err := r.retry.Do(ctx, func(attempt int) error {
		actx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		t0 := time.Now()
		res, err := r.upstream.Complete(actx, CompletionRequest{
			Model:      r.model,
			Prompt:     p.Text,
			Params:     p.Params,
			Credential: r.credential,
			RequestID:  id,
		})
		upstreamDuration.WithLabelValues(provider).Observe(time.Since(t0).Seconds())
		upstreamAttemptsTotal.WithLabelValues(provider, outcomeLabel(err)).Inc()
		ev := log.Info()
		if err != nil {
			ev = log.Warn().Err(err)
		}
		ev.Int("attempt", attempt).Int("status", res.Status).Dur("dur", time.Since(t0)).Msg("upstream attempt")
		if err != nil {
			return err
		}
		text = res.Text
		return nil
	}, func(attempt int, wait time.Duration, re *Error) {
		upstreamRetriesTotal.WithLabelValues(provider, string(re.Kind)).Inc()
		log.Info().Int("attempt", attempt).Dur("wait", wait).Str("reason", string(re.Kind)).Msg("upstream retry scheduled")
	})
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = errInvalidUpstream(errors.New("empty completion text"))
		}
	}
	if err != nil {
		var re *Error
		if !errors.As(err, &re) {
			re = errUnknown(err)
		}
		searchesTotal.WithLabelValues(string(p.Profile), string(re.Kind)).Inc()
		log.Error().Err(re).Str("kind", string(re.Kind)).Dur("dur", time.Since(start)).Msg("search failed")
		return "", re
	}
	searchesTotal.WithLabelValues(string(p.Profile), "ok").Inc()
	log.Info().Int("response_len", len(text)).Dur("dur", time.Since(start)).Msg("search end")
	return text, nil
}
