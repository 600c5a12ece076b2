package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/axs221/qutebrowser/internal/httpbin"
)

func newHTTPBinCmd() *cobra.Command {
	var (
		port    int
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "httpbin",
		Short: "Serve the mock HTTP server until interrupted",
		Long: `Serve the mock HTTP server the feature files run against, e.g. to
inspect a data page in a regular browser while writing a scenario.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := harnessConfig.HTTPBin
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}

			ctx, cancel := signalContext(cmd.Context(), "Received interrupt signal, stopping httpbin...")
			defer cancel()

			server := httpbin.New(cfg)
			if err := server.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s:%d/\n", cfg.DataDir, cfg.Host, server.Port())

			<-ctx.Done()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			return server.Stop(stopCtx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (0 picks a free one)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory served under /data/")
	return cmd
}
