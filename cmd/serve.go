package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the inspection HTTP API",
		Long: `Starts the HTTP server exposing /api/inspect, /api/debug, health probes
and Prometheus metrics. The process drains in-flight requests on SIGINT or
SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := appInstance.Serve(ctx); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			appInstance.GetLogger().Info("server stopped")
			return nil
		},
	}
}
