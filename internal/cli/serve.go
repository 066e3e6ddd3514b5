package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gestalt/pkg/server"
	"github.com/matzehuels/gestalt/pkg/telemetry"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve exposes POST /v1/layouts, GET /healthz and GET /version.

The cache backend, advisory collaborator and tracing exporter come from
the config file and GESTALT_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			shutdown, err := telemetry.Init(ctx, cfg.Telemetry, c.Logger)
			if err != nil {
				return err
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					c.Logger.Warn("telemetry shutdown", "err", err)
				}
			}()

			runner, err := c.newRunner(ctx, cfg, runnerOptions{})
			if err != nil {
				return err
			}
			defer runner.Close()

			c.Logger.Info("starting server", "cache", cfg.Cache.Backend, "advisory", cfg.Advisory.Enabled)
			return server.New(runner, cfg.Server, c.Logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
