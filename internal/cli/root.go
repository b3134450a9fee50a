package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"intellisearch/internal/config"
)

// exitError carries a process exit code for failures that were already
// reported to the user.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// env abstracts the process environment so commands can be tested.
type env struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

// NewRootCmd constructs the intellisearch command tree.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return newRootCmd(env{stdout: stdout, stderr: stderr, getenv: os.Getenv})
}

func newRootCmd(e env) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "intellisearch",
		Short:         "AI search relay: answers questions through a hosted LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (.yaml/.yml/.json/.toml); defaults to "+config.EnvConfig)
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "KEY=VALUE file loaded into the environment if present")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides "+config.EnvLogLevel+")")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: json|console (overrides "+config.EnvLogFormat+")")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if flags.envFile == "" {
			return nil
		}
		return config.LoadDotEnv(flags.envFile)
	}

	root.AddCommand(newServeCmd(e, flags), newAskCmd(e), newConfigCmd(e, flags), newCompletionCmd(root))
	return root
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenBashCompletion(cmd.OutOrStdout())
	}})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenZshCompletion(cmd.OutOrStdout())
	}})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenFishCompletion(cmd.OutOrStdout(), true)
	}})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	return completionCmd
}

// resolveConfig layers defaults, file, environment and root flags.
func resolveConfig(e env, flags *rootFlags) (config.Config, error) {
	cfg, err := config.Resolve(flags.configPath, e.getenv)
	if err != nil {
		return cfg, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.LogFormat = flags.logFormat
	}
	return cfg, nil
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}
