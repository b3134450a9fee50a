package relay

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by DefaultRetryPolicy and normalize.
const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second
)

// RetryPolicy governs how a single upstream call is repeated. Attempts run
// sequentially; only rate-limited and transport failures are repeated.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	HonorRetryAfter bool
	// Jitter adds up to this fraction of the computed backoff (0 disables).
	Jitter float64
}

// DefaultRetryPolicy returns the production policy: 3 attempts, 1s base,
// 30s cap, Retry-After honored, no jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     defaultMaxAttempts,
		BaseDelay:       defaultBaseDelay,
		MaxDelay:        defaultMaxDelay,
		HonorRetryAfter: true,
	}
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

// Backoff returns the exponential delay after the given 1-based attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.normalize()
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.Jitter > 0 {
		d += time.Duration(rand.Float64() * p.Jitter * float64(d))
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Delay picks the wait before the next attempt: the server's Retry-After for
// rate limits when honored, exponential backoff otherwise.
func (p RetryPolicy) Delay(attempt int, err *Error) time.Duration {
	p = p.normalize()
	if p.HonorRetryAfter && err != nil && err.Kind == KindRateLimited && err.RetryAfter > 0 {
		if err.RetryAfter > p.MaxDelay {
			return p.MaxDelay
		}
		return err.RetryAfter
	}
	return p.Backoff(attempt)
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. fn receives the 1-based attempt number. Exhausting the
// attempts yields a ServiceUnavailable error wrapping the last failure.
// onRetry, when non-nil, is called before each wait.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error, onRetry func(attempt int, wait time.Duration, err *Error)) error {
	p = p.normalize()
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		var re *Error
		if !errors.As(err, &re) || !re.Retryable() {
			return err
		}
		if attempt >= p.MaxAttempts {
			return errExhausted(attempt, err)
		}
		wait := p.Delay(attempt, re)
		if onRetry != nil {
			onRetry(attempt, wait, re)
		}
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// ParseRetryAfter interprets a Retry-After header value given either as
// delta-seconds or as an HTTP date.
func ParseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
