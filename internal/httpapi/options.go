package httpapi

import (
	"context"

	"github.com/rs/zerolog"
)

const defaultMaxBodyBytes int64 = 1 << 20

// Options configures the HTTP layer. It replaces package-level setters so
// several muxes can coexist in one process (tests, embedding).
type Options struct {
	// Logger is used for per-request logs. Nil disables logging.
	Logger *zerolog.Logger
	// BaseContext is canceled on shutdown; in-flight searches observe it.
	BaseContext context.Context
	// MaxBodyBytes limits JSON request bodies. Non-positive means 1 MiB.
	MaxBodyBytes int64
	// LogLevel is the default per-request log level.
	LogLevel LogLevel
	// PublicBaseURL is the address browsers use to reach the relay. Empty
	// means same origin.
	PublicBaseURL string
	CORS          CORSOptions
}

// CORSOptions configures go-chi/cors. When Enabled is false no CORS
// middleware is installed.
type CORSOptions struct {
	Enabled        bool
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// CORSPolicy returns the relay CORS policy: every origin in development,
// the given allow list in production.
func CORSPolicy(production bool, origins []string) CORSOptions {
	c := CORSOptions{
		Enabled:        true,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID", "X-Log-Level"},
	}
	if production {
		c.AllowedOrigins = append([]string(nil), origins...)
	} else {
		c.AllowedOrigins = []string{"*"}
	}
	return c
}

func (o Options) withDefaults() Options {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	if o.BaseContext == nil {
		o.BaseContext = context.Background()
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}
