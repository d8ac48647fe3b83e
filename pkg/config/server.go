package config

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/vulntor/stackscan/pkg/fetch"
)

// DefaultServerConfig returns the default server configuration.
// These are sensible defaults for local development and can be overridden
// via flags, environment variables, or config files.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "127.0.0.1",
		Port:         8080,
		Concurrency:  4,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Auth:         AuthConfig{Mode: "none"},
	}
}

// DefaultDetectConfig returns the default detection bounds.
func DefaultDetectConfig() DetectConfig {
	return DetectConfig{
		Timeout:      10 * time.Second,
		MaxTimeout:   60 * time.Second,
		UserAgent:    fetch.DefaultUserAgent,
		MaxBodyBytes: fetch.DefaultMaxBodyBytes,
	}
}

// BindServerFlags binds server-specific flags to the provided FlagSet.
// These flags will be used by the 'stackscan server start' command.
//
// Flags are namespaced under 'server.' to avoid conflicts with global flags.
// Example: --server.addr, --server.port
func BindServerFlags(flags *pflag.FlagSet) {
	defaults := DefaultServerConfig()

	flags.String("server.addr", defaults.Addr, "Server listen address (use 0.0.0.0 for all interfaces)")
	flags.Int("server.port", defaults.Port, "Server listen port")
	flags.Int("server.concurrency", defaults.Concurrency, "Number of batch detection workers")
	flags.Duration("server.read_timeout", defaults.ReadTimeout, "HTTP read timeout")
	flags.Duration("server.write_timeout", defaults.WriteTimeout, "HTTP write timeout")
	flags.String("server.auth.mode", defaults.Auth.Mode, "API authentication mode (none, token)")
	flags.String("server.auth.token", "", "Bearer token required when auth mode is token")
}

// BindDetectFlags binds the detection bounds shared by 'detect' and 'server start'.
func BindDetectFlags(flags *pflag.FlagSet) {
	defaults := DefaultDetectConfig()

	flags.Duration("detect.timeout", defaults.Timeout, "Default page fetch timeout")
	flags.Duration("detect.max_timeout", defaults.MaxTimeout, "Maximum accepted fetch timeout")
	flags.String("detect.user_agent", defaults.UserAgent, "User-Agent header sent when fetching")
	flags.Int64("detect.max_body_bytes", defaults.MaxBodyBytes, "Maximum response body size in bytes")
}

// BindCatalogFlags binds catalog selection flags.
func BindCatalogFlags(flags *pflag.FlagSet) {
	flags.String("catalog.path", "", "Technology catalog file (JSON or YAML)")
	flags.String("catalog.cache_dir", "", "Directory holding the synced catalog cache")
	flags.Bool("catalog.watch", false, "Reload the catalog file when it changes")
	flags.String("telemetry.file", "", "Append detection events to this JSONL file")
}
