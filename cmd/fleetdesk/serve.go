package main

import (
	"github.com/spf13/cobra"

	"github.com/neuralsys/fleetdesk/internal/auth/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Run the HTTP service.

Migrations are applied before the listener starts. The service stops on
SIGINT or SIGTERM after in-flight requests finish.

Example:
  fleetdesk serve --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.config()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			application, err := app.New(cfg)
			if err != nil {
				return err
			}
			return application.Run()
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "listen port (overrides PORT)")
	return cmd
}
