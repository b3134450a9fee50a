package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

// ParseLogLevel maps a level name to a LogLevel. Unknown names mean info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "off", "disabled", "":
		return LevelOff
	case "error", "fatal", "panic":
		return LevelError
	case "debug", "trace":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// requestLogLevel honors per-request overrides from ?log= and X-Log-Level.
func requestLogLevel(r *http.Request, def LogLevel) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return ParseLogLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return ParseLogLevel(v)
	}
	return def
}

// requestEvent starts a log event for r at the given level, or returns nil
// when the request log level suppresses it. zerolog events are nil-safe.
func requestEvent(log *zerolog.Logger, r *http.Request, lvl, want LogLevel) *zerolog.Event {
	if lvl < want {
		return nil
	}
	var ev *zerolog.Event
	switch want {
	case LevelError:
		ev = log.Error()
	case LevelDebug:
		ev = log.Debug()
	default:
		ev = log.Info()
	}
	ev = ev.Str("path", r.URL.Path)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	return ev
}
