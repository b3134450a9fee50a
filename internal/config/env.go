package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"intellisearch/internal/common/fsutil"
)

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		p, err := fsutil.ExpandHome(p)
		if err != nil {
			return err
		}
		if !fsutil.RegularFile(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables on cfg. getenv is os.Getenv in
// production. The credential is resolved last, once the provider is known.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvAddr)); v != "" {
		cfg.Addr = v
	} else if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		cfg.Addr = ":" + v
	}
	setString(&cfg.BaseURL, getenv(EnvBaseURL))
	setString(&cfg.Provider, strings.ToLower(getenv(EnvProvider)))
	setString(&cfg.Model, getenv(EnvModel))
	setString(&cfg.Endpoint, getenv(EnvEndpoint))
	setString(&cfg.LogLevel, strings.ToLower(getenv(EnvLogLevel)))
	setString(&cfg.LogFormat, strings.ToLower(getenv(EnvLogFormat)))

	var errs []error
	if v := strings.TrimSpace(getenv(EnvTimeout)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTimeout, err))
		} else {
			cfg.TimeoutSeconds = n
		}
	}
	if v := strings.TrimSpace(getenv(EnvMaxAttempts)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMaxAttempts, err))
		} else {
			cfg.MaxAttempts = n
		}
	}
	if v := strings.TrimSpace(getenv(EnvProduction)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvProduction, err))
		} else {
			cfg.Production = b
		}
	}
	if v := getenv(EnvAllowedOrigins); strings.TrimSpace(v) != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	cfg.Credential = strings.TrimSpace(getenv(cfg.CredentialEnv()))
	return errors.Join(errs...)
}

// Resolve layers defaults, an optional config file and the environment.
func Resolve(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if path == "" {
		path = getenv(EnvConfig)
	}
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}
	if err := ApplyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
