package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"intellisearch/internal/relay"
)

// Environment variables read by ApplyEnv. Names are case-sensitive.
const (
	EnvTogetherAPIKey = "TOGETHER_API_KEY"
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvBaseURL        = "INTELLISEARCH_BASE_URL"
	EnvAddr           = "INTELLISEARCH_ADDR"
	EnvPort           = "PORT"
	EnvConfig         = "INTELLISEARCH_CONFIG"
	EnvProvider       = "INTELLISEARCH_PROVIDER"
	EnvModel          = "INTELLISEARCH_MODEL"
	EnvEndpoint       = "INTELLISEARCH_ENDPOINT"
	EnvTimeout        = "INTELLISEARCH_TIMEOUT_SECONDS"
	EnvMaxAttempts    = "INTELLISEARCH_MAX_ATTEMPTS"
	EnvLogLevel       = "INTELLISEARCH_LOG_LEVEL"
	EnvLogFormat      = "INTELLISEARCH_LOG_FORMAT"
	EnvProduction     = "PRODUCTION"
	EnvAllowedOrigins = "ALLOWED_ORIGINS"
)

// Config holds runtime parameters for the relay process.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// BaseURL is the public URL of the relay when it sits behind another proxy.
	BaseURL               string   `json:"base_url" yaml:"base_url" toml:"base_url"`
	Provider              string   `json:"provider" yaml:"provider" toml:"provider"`
	Endpoint              string   `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Model                 string   `json:"model" yaml:"model" toml:"model"`
	TimeoutSeconds        int      `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
	ConnectTimeoutSeconds int      `json:"connect_timeout_seconds" yaml:"connect_timeout_seconds" toml:"connect_timeout_seconds"`
	MaxAttempts           int      `json:"max_attempts" yaml:"max_attempts" toml:"max_attempts"`
	RetryBaseDelayMS      int      `json:"retry_base_delay_ms" yaml:"retry_base_delay_ms" toml:"retry_base_delay_ms"`
	RetryMaxDelayMS       int      `json:"retry_max_delay_ms" yaml:"retry_max_delay_ms" toml:"retry_max_delay_ms"`
	HonorRetryAfter       bool     `json:"honor_retry_after" yaml:"honor_retry_after" toml:"honor_retry_after"`
	RetryJitter           float64  `json:"retry_jitter" yaml:"retry_jitter" toml:"retry_jitter"`
	MaxBodyBytes          int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	Production            bool     `json:"production" yaml:"production" toml:"production"`
	AllowedOrigins        []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	LogLevel              string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat             string   `json:"log_format" yaml:"log_format" toml:"log_format"`

	// Credential only ever comes from the environment.
	Credential string `json:"-" yaml:"-" toml:"-"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Addr:                  ":8080",
		Provider:              relay.ProviderTogether,
		TimeoutSeconds:        int(relay.DefaultTimeout / time.Second),
		ConnectTimeoutSeconds: 10,
		MaxAttempts:           3,
		RetryBaseDelayMS:      1000,
		RetryMaxDelayMS:       30000,
		HonorRetryAfter:       true,
		MaxBodyBytes:          1 << 20,
		AllowedOrigins:        []string{"http://localhost:3000"},
		LogLevel:              "info",
		LogFormat:             "json",
	}
}

// CredentialEnv names the environment variable holding the credential for
// the configured provider.
func (c Config) CredentialEnv() string {
	if c.Provider == relay.ProviderGemini {
		return EnvGeminiAPIKey
	}
	return EnvTogetherAPIKey
}

// Validate checks the configuration once at startup. A missing credential is
// not an error here: requests fail with ConfigurationError instead.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	switch c.Provider {
	case relay.ProviderTogether, relay.ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, relay.ProviderTogether, relay.ProviderGemini))
	}
	if c.TimeoutSeconds <= 0 || c.TimeoutSeconds > 300 {
		errs = append(errs, fmt.Errorf("timeout_seconds must be in 1..300, got %d", c.TimeoutSeconds))
	}
	if c.ConnectTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("connect_timeout_seconds must not be negative"))
	}
	if c.MaxAttempts < 1 || c.MaxAttempts > 10 {
		errs = append(errs, fmt.Errorf("max_attempts must be in 1..10, got %d", c.MaxAttempts))
	}
	if c.RetryBaseDelayMS < 0 {
		errs = append(errs, fmt.Errorf("retry_base_delay_ms must not be negative"))
	}
	if c.RetryMaxDelayMS < c.RetryBaseDelayMS {
		errs = append(errs, fmt.Errorf("retry_max_delay_ms (%d) must be >= retry_base_delay_ms (%d)", c.RetryMaxDelayMS, c.RetryBaseDelayMS))
	}
	if c.RetryJitter < 0 || c.RetryJitter > 1 {
		errs = append(errs, fmt.Errorf("retry_jitter must be in 0..1"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be positive"))
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL))
		}
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log_format must be json or console, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Retry derives the relay retry policy.
func (c Config) Retry() relay.RetryPolicy {
	return relay.RetryPolicy{
		MaxAttempts:     c.MaxAttempts,
		BaseDelay:       time.Duration(c.RetryBaseDelayMS) * time.Millisecond,
		MaxDelay:        time.Duration(c.RetryMaxDelayMS) * time.Millisecond,
		HonorRetryAfter: c.HonorRetryAfter,
		Jitter:          c.RetryJitter,
	}
}

// Relay builds the relay configuration; the credential is passed through
// unchanged and never logged.
func (c Config) Relay(logger *zerolog.Logger) relay.Config {
	return relay.Config{
		Provider:       c.Provider,
		Endpoint:       c.Endpoint,
		Model:          c.Model,
		Credential:     c.Credential,
		Timeout:        time.Duration(c.TimeoutSeconds) * time.Second,
		ConnectTimeout: time.Duration(c.ConnectTimeoutSeconds) * time.Second,
		Retry:          c.Retry(),
		Logger:         logger,
	}
}
