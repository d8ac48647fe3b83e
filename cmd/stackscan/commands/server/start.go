// Package server provides the Cobra command implementation for the stackscan server lifecycle.
// It wires CLI flags to the server runtime and handles the start command.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vulntor/stackscan/cmd/stackscan/internal/bind"
	"github.com/vulntor/stackscan/cmd/stackscan/internal/format"
	"github.com/vulntor/stackscan/pkg/appctx"
	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/logging"
	serversvc "github.com/vulntor/stackscan/pkg/server"
	"github.com/vulntor/stackscan/pkg/server/app"
)

const startOperation = "start server"

// newStartServerCommand creates and returns the 'stackscan server start' command.
//
// This command initializes the stackscan server runtime, which includes:
//   - HTTP API with the detection endpoints (/api/v1/detect, /api/v1/detect/batch)
//   - Catalog endpoints (/api/v1/catalog, /api/v1/catalog/technologies)
//   - Health and readiness endpoints (/healthz, /readyz)
//   - Batch detection workers
//   - Optional catalog file watcher (--catalog.watch)
//
// The server runs until interrupted (SIGINT/SIGTERM) or context cancellation,
// then performs graceful shutdown (HTTP close → jobs stop). SIGHUP reloads
// the catalog without dropping connections.
//
// Configuration is loaded from:
//   - Global flags (--config, --log.level, --catalog.path, etc.)
//   - Server-specific flags (--addr, --port, --concurrency, --server.*)
//   - Environment variables (STACKSCAN_*)
//   - Config file (config.yaml)
//
// Example usage:
//
//	stackscan server start
//	stackscan server start --addr 0.0.0.0 --port 8080
//	stackscan server start --catalog.path ./technologies.json --catalog.watch
func newStartServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the stackscan server",
		Long: `Start the stackscan server process.

The server exposes the detection engine over HTTP and keeps the technology
catalog hot: send SIGHUP or enable --catalog.watch to reload it.

The server runs until interrupted (Ctrl+C) or killed, performing graceful
shutdown to drain in-flight requests and complete running batch jobs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			fail := func(err error) error {
				return formatter.PrintTotalFailureSummary(startOperation, err, serversvc.ErrorCode(err))
			}

			cfgMgr, ok := appctx.Config(cmd.Context())
			if !ok {
				return fail(serversvc.ErrConfigUnavailable)
			}
			cfg := cfgMgr.Get()

			serverCfg, err := bind.BindServerOptions(cmd, cfg.Server)
			if err != nil {
				return fail(err)
			}
			cfg.Server = serverCfg
			cfg.Catalog.CacheDir = bind.CacheDir(cfg.Catalog)
			if err := config.Validate(cfg); err != nil {
				return fail(serversvc.WrapInvalidConfig(err))
			}

			logger := logging.NewLogger("server", zerolog.GlobalLevel())

			detector, telemetry, err := bind.NewDetector(cfg, logger)
			if err != nil {
				return fail(serversvc.WrapTelemetryInit(err))
			}
			defer func() {
				if err := telemetry.Close(); err != nil {
					logger.Warn().Err(err).Msg("close telemetry log")
				}
			}()
			if detector.Catalog().Len() == 0 {
				logger.Warn().Msg("catalog is empty, detections will report no technologies")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reload := app.CatalogReloader(cfg.Catalog, detector, logger)
			signalCtx, stopSignals := context.WithCancel(ctx)
			signals := serversvc.NewServer(reload)
			signals.Start(signalCtx)
			defer func() {
				stopSignals()
				signals.Close()
			}()

			deps := &app.Deps{
				Detector: detector,
				Reload:   reload,
				Config:   cfgMgr,
				Logger:   logger,
			}

			serverApp, err := app.New(ctx, cfg, deps)
			if err != nil {
				return fail(serversvc.WrapAppInit(err))
			}

			// Run server (blocks until shutdown)
			if err := serverApp.Run(ctx); err != nil {
				return fail(serversvc.WrapRuntime(err))
			}

			return nil
		},
	}

	// Server-specific flags
	cmd.Flags().String("addr", "", "Server listen address (overrides server.addr)")
	cmd.Flags().Int("port", 0, "Server listen port (overrides server.port)")
	cmd.Flags().Int("concurrency", 0, "Number of batch detection workers (overrides server.concurrency)")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	config.BindServerFlags(cmd.Flags())
	config.BindDetectFlags(cmd.Flags())

	return cmd
}
