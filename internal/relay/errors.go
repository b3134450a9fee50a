package relay

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind classifies a relay failure. The string value is what clients see in
// the "error" field of the JSON payload.
type Kind string

const (
	KindInvalidRequest          Kind = "InvalidRequest"
	KindConfiguration           Kind = "ConfigurationError"
	KindUpstream                Kind = "UpstreamError"
	KindRateLimited             Kind = "RateLimited"
	KindTimeout                 Kind = "Timeout"
	KindInvalidUpstreamResponse Kind = "InvalidUpstreamResponse"
	KindServiceUnavailable      Kind = "ServiceUnavailable"
	KindUnknown                 Kind = "UnknownError"
)

// Error is the single error type produced by the relay. Message is safe to
// show to clients; Err carries the internal cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	// Status is the upstream HTTP status, when one was received.
	Status int
	// RetryAfter is the server-requested delay for rate-limited attempts.
	RetryAfter time.Duration
	Err        error

	// transient marks transport failures that the retry policy may repeat.
	transient bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps the error kind to the HTTP status returned to clients.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUpstream:
		if e.Status >= 400 && e.Status <= 599 {
			return e.Status
		}
		return http.StatusBadGateway
	case KindRateLimited, KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the retry policy may repeat the attempt.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimited || e.transient
}

func ErrInvalidRequest(msg string) error {
	return &Error{Kind: KindInvalidRequest, Message: msg}
}

func ErrConfiguration(msg string) error {
	return &Error{Kind: KindConfiguration, Message: msg}
}

func errUpstreamStatus(status int) *Error {
	return &Error{
		Kind:    KindUpstream,
		Message: fmt.Sprintf("inference provider returned status %d", status),
		Status:  status,
	}
}

func errRateLimited(retryAfter time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Message:    "inference provider rate limit reached",
		Status:     http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

func errTimeout(err error) *Error {
	return &Error{Kind: KindTimeout, Message: "inference provider did not respond in time", Err: err}
}

func errTransport(err error) *Error {
	return &Error{
		Kind:      KindServiceUnavailable,
		Message:   "inference provider is unreachable",
		Err:       err,
		transient: true,
	}
}

func errInvalidUpstream(err error) *Error {
	return &Error{
		Kind:    KindInvalidUpstreamResponse,
		Message: "inference provider returned an invalid response",
		Err:     err,
	}
}

func errExhausted(attempts int, last error) *Error {
	return &Error{
		Kind:    KindServiceUnavailable,
		Message: fmt.Sprintf("inference service unavailable after %d attempts", attempts),
		Err:     last,
	}
}

const redacted = "[REDACTED]"

// redact masks the credential in provider-supplied text before it reaches an
// error chain or a log line.
func redact(s, credential string) string {
	if credential == "" {
		return s
	}
	return strings.ReplaceAll(s, credential, redacted)
}

func errUnknown(err error) *Error {
	return &Error{Kind: KindUnknown, Message: "an unexpected error occurred", Err: err}
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// IsInvalidRequest reports whether err was caused by bad client input.
func IsInvalidRequest(err error) bool { return KindOf(err) == KindInvalidRequest }

// IsTimeout reports whether an upstream attempt exceeded its deadline.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsServiceUnavailable reports whether retries were exhausted or the
// provider could not be reached.
func IsServiceUnavailable(err error) bool { return KindOf(err) == KindServiceUnavailable }
