package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"intellisearch/internal/config"
	"intellisearch/internal/httpapi"
	"intellisearch/internal/relay"
)

const shutdownGrace = 10 * time.Second

type serveFlags struct {
	addr        string
	provider    string
	model       string
	endpoint    string
	timeout     int
	maxAttempts int
}

func newServeCmd(e env, rf *rootFlags) *cobra.Command {
	sf := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		Example: "  TOGETHER_API_KEY=... intellisearch serve\n" +
			"  intellisearch serve --config ~/.config/intellisearch.yaml --addr :9090",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(e, rf)
			if err != nil {
				return err
			}
			applyServeFlags(cmd, sf, &cfg, e.getenv)
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel, cfg.LogFormat, e.stderr)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log, nil)
		},
	}
	f := cmd.Flags()
	f.StringVar(&sf.addr, "addr", "", "HTTP listen address, e.g. :8080")
	f.StringVar(&sf.provider, "provider", "", "Inference provider: together|gemini")
	f.StringVar(&sf.model, "model", "", "Model identifier sent upstream")
	f.StringVar(&sf.endpoint, "endpoint", "", "Override the provider endpoint URL")
	f.IntVar(&sf.timeout, "timeout", 0, "Per-attempt upstream timeout in seconds")
	f.IntVar(&sf.maxAttempts, "max-attempts", 0, "Maximum upstream attempts per search")
	return cmd
}

// applyServeFlags overlays flags the user actually set.
func applyServeFlags(cmd *cobra.Command, sf *serveFlags, cfg *config.Config, getenv func(string) string) {
	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Addr = sf.addr
	}
	if f.Changed("provider") {
		cfg.Provider = sf.provider
		// The credential variable depends on the provider.
		cfg.Credential = strings.TrimSpace(getenv(cfg.CredentialEnv()))
	}
	if f.Changed("model") {
		cfg.Model = sf.model
	}
	if f.Changed("endpoint") {
		cfg.Endpoint = sf.endpoint
	}
	if f.Changed("timeout") {
		cfg.TimeoutSeconds = sf.timeout
	}
	if f.Changed("max-attempts") {
		cfg.MaxAttempts = sf.maxAttempts
	}
}

// serve runs the relay until ctx is canceled. ready, if non-nil, receives
// the bound address once the listener is open.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger, ready func(addr string)) error {
	if cfg.Credential == "" {
		log.Warn().Str("env", cfg.CredentialEnv()).Msg("inference credential is not set; searches will fail with ConfigurationError")
	}
	r := relay.NewWithConfig(cfg.Relay(&log))

	// Canceled on shutdown so in-flight searches stop waiting on the upstream.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	mux, err := httpapi.NewMux(r, httpapi.Options{
		Logger:        &log,
		BaseContext:   baseCtx,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		LogLevel:      httpapi.ParseLogLevel(cfg.LogLevel),
		PublicBaseURL: cfg.BaseURL,
		CORS:          httpapi.CORSPolicy(cfg.Production, cfg.AllowedOrigins),
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().
		Str("addr", ln.Addr().String()).
		Str("provider", r.Provider()).
		Str("model", r.Model()).
		Bool("production", cfg.Production).
		Msg("intellisearch listening")
	if ready != nil {
		ready(ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	cancelBase()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
		return err
	}
	return nil
}
