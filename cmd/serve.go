// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/smartir/internal/api"
	"github.com/Thermoquad/smartir/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the climate hub with its REST API",
		Long: `Run every configured climate as a long-lived service.

Connects to Home Assistant, the MQTT broker and the history database as
configured, follows the temperature, humidity and power sensors bound to
each climate, and serves the REST API:

  GET  /health
  GET  /api/v1/climates[/{id}[/history]]
  POST /api/v1/climates/{id}/{hvac_mode,fan_mode,swing_mode,temperature}
  POST /api/v1/climates/{id}/{turn_on,turn_off}
  POST /api/v1/climates/{id}/toggles/{name}
  POST /api/v1/climates/{id}/actions/{action}

SIGINT or SIGTERM shut the server down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// context for background goroutines
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s, err := openSession(ctx, g)
			if err != nil {
				return err
			}
			defer s.Close()

			s.track(ctx)

			if listen == "" {
				listen = s.cfg.HTTP.Listen
			}
			apiHandler := api.NewHandler(s.hub, s.log.Named("api"))

			srv := &api.Server{}
			errCh := runHTTPServer(srv, listen, apiHandler, s.log)
			s.log.Infow("Serving climates", "listen", listen, "climates", len(s.hub.Entities()))

			return waitForShutdown(cancel, srv, errCh, s.log)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides http.listen)")
	return cmd
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *api.Server, listen string, handler *api.Handler, log *logger.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Run(listen, handler.InitRoutes()); err != nil {
			log.Errorw("error starting server", "err", err)
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *api.Server, errCh <-chan error, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err, ok := <-errCh:
		cancel()
		if ok {
			return err
		}
		return nil
	}

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	return srv.Shutdown(ctx)
}
