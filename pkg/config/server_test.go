package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()

	// Network settings
	require.Equal(t, "127.0.0.1", cfg.Addr)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 4, cfg.Concurrency)

	// Timeouts
	require.Equal(t, 30*time.Second, cfg.ReadTimeout)
	require.Equal(t, 30*time.Second, cfg.WriteTimeout)

	// Auth is off by default
	require.Equal(t, "none", cfg.Auth.Mode)
	require.Empty(t, cfg.Auth.Token)
}

func TestBindServerFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindServerFlags(flags)

	err := flags.Parse([]string{
		"--server.addr=0.0.0.0",
		"--server.port=9090",
		"--server.concurrency=8",
		"--server.read_timeout=5s",
		"--server.auth.mode=token",
		"--server.auth.token=secret",
	})
	require.NoError(t, err)

	addr, err := flags.GetString("server.addr")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", addr)

	port, err := flags.GetInt("server.port")
	require.NoError(t, err)
	require.Equal(t, 9090, port)

	concurrency, err := flags.GetInt("server.concurrency")
	require.NoError(t, err)
	require.Equal(t, 8, concurrency)

	readTimeout, err := flags.GetDuration("server.read_timeout")
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, readTimeout)

	mode, err := flags.GetString("server.auth.mode")
	require.NoError(t, err)
	require.Equal(t, "token", mode)
}

func TestBindDetectFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindDetectFlags(flags)

	require.NoError(t, flags.Parse([]string{"--detect.max_body_bytes=2048"}))

	timeout, err := flags.GetDuration("detect.timeout")
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, timeout)

	maxBody, err := flags.GetInt64("detect.max_body_bytes")
	require.NoError(t, err)
	require.Equal(t, int64(2048), maxBody)
}

func TestBindCatalogFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindCatalogFlags(flags)

	require.NoError(t, flags.Parse([]string{"--catalog.path=c.yaml", "--catalog.watch", "--telemetry.file=e.jsonl"}))

	path, err := flags.GetString("catalog.path")
	require.NoError(t, err)
	require.Equal(t, "c.yaml", path)

	watch, err := flags.GetBool("catalog.watch")
	require.NoError(t, err)
	require.True(t, watch)

	telemetry, err := flags.GetString("telemetry.file")
	require.NoError(t, err)
	require.Equal(t, "e.jsonl", telemetry)
}
