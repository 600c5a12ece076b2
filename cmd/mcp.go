package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/axs221/qutebrowser/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the harness as MCP tools over stdio",
		Long: `Runs an MCP server on stdin/stdout exposing the tools list_steps,
run_features and last_report. Configure it in your AI assistant's MCP
settings; logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context(), "Received interrupt signal, stopping MCP server...")
			defer cancel()

			server := mcpserver.New(harnessConfig, rootCmd.Version, nil)
			return server.Serve(ctx, os.Stdin, os.Stdout)
		},
	}
}
