package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"intellisearch/internal/client"
	"intellisearch/internal/config"
)

func newAskCmd(e env) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:     "ask <question>",
		Short:   "Ask a running relay a question and print the answer",
		Example: "  intellisearch ask \"How do I reverse a list in Python?\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("base-url") {
				if v := strings.TrimSpace(e.getenv(config.EnvBaseURL)); v != "" {
					baseURL = v
				}
			}
			answer, err := client.New(baseURL).Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				client.Error(cmd.ErrOrStderr(), err)
				return exitError{code: 1}
			}
			client.Answer(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", client.DefaultBaseURL, "Relay base URL (defaults to "+config.EnvBaseURL+")")
	return cmd
}
