// Package cmd provides the qdex CLI commands.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/qdex/internal/config"
	"github.com/kailas-cloud/qdex/internal/version"
)

// NewRootCmd creates the root command. Without a subcommand it serves the API.
func NewRootCmd() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "qdex",
		Short: "Parliamentary question index and semantic search API",
		Long: `qdex stores parliamentary questions per chamber sitting in Redis,
embeds them through an OpenAI-compatible provider and serves
semantic search, suggestions and unanswered listings over HTTP.`,
		Version:      version.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), env)
		},
	}

	cmd.SetVersionTemplate("qdex version {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(),
		"Config environment, selects config/<env>.yaml (overrides ENV)")

	cmd.AddCommand(newServeCmd(&env))
	cmd.AddCommand(newIndexCmd(&env))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
