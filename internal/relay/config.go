package relay

import (
	"time"

	"github.com/rs/zerolog"
)

// Provider names accepted by Config.Provider.
const (
	ProviderTogether = "together"
	ProviderGemini   = "gemini"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultTogetherModel  = "meta-llama/Meta-Llama-3-70B-Instruct-Turbo"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultTimeout        = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second
)

// Config encapsulates all tunables for Relay construction. It is built once
// at startup; nothing in the request path reads the environment.
type Config struct {
	Provider string
	// Endpoint overrides the provider URL (Together endpoint, Gemini base URL).
	Endpoint       string
	Model          string
	Credential     string
	Timeout        time.Duration
	ConnectTimeout time.Duration
	Retry          RetryPolicy
	// Upstream replaces the provider adapter; used by tests and embedders.
	Upstream Upstream
	Logger   *zerolog.Logger
}

// NewWithConfig constructs a Relay from Config, applying defaults.
func NewWithConfig(cfg Config) *Relay {
	r := &Relay{
		model:      cfg.Model,
		credential: cfg.Credential,
		timeout:    cfg.Timeout,
		retry:      cfg.Retry.normalize(),
		newID:      newSearchID,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if cfg.Logger != nil {
		r.log = *cfg.Logger
	} else {
		r.log = zerolog.Nop()
	}
	connect := cfg.ConnectTimeout
	if connect <= 0 {
		connect = defaultConnectTimeout
	}
	switch {
	case cfg.Upstream != nil:
		r.upstream = cfg.Upstream
	case cfg.Provider == ProviderGemini:
		r.upstream = NewGeminiUpstream(cfg.Endpoint, nil)
	default:
		r.upstream = NewTogetherUpstream(cfg.Endpoint, connect)
	}
	if r.model == "" {
		if r.upstream.Name() == ProviderGemini {
			r.model = DefaultGeminiModel
		} else {
			r.model = DefaultTogetherModel
		}
	}
	return r
}
