package cli

import (
	"encoding/json"
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(e env, rf *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration (credentials are never printed)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(e, rf)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			credState := "unset"
			if cfg.Credential != "" {
				credState = "set"
			}
			switch format {
			case "yaml", "":
				b, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "# %s: %s\n%s", cfg.CredentialEnv(), credState, b)
			case "toml":
				b, err := toml.Marshal(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "# %s: %s\n%s", cfg.CredentialEnv(), credState, b)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			default:
				return fmt.Errorf("unsupported format %q (want yaml, json or toml)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format: yaml|json|toml")
	return cmd
}
