package bind

import (
	"github.com/spf13/cobra"

	"github.com/vulntor/stackscan/pkg/config"
	srv "github.com/vulntor/stackscan/pkg/server"
)

// BindServerOptions overlays the short server start flags onto cfg and
// validates the result.
//
// Flags read (only when set on the command line):
//   - --addr: Server listen address (e.g., "127.0.0.1", "0.0.0.0")
//   - --port: Server listen port (1-65535)
//   - --concurrency: Number of batch detection workers
//
// Returns an error if validation fails (e.g., invalid port range, invalid concurrency).
func BindServerOptions(cmd *cobra.Command, cfg config.ServerConfig) (config.ServerConfig, error) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return cfg, srv.NewInvalidPortError(cfg.Port)
	}
	if cfg.Concurrency < 1 {
		return cfg, srv.NewInvalidConcurrencyError(cfg.Concurrency)
	}

	return cfg, nil
}
