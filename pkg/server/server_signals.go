// pkg/server/server_signals.go
//go:build !windows
// +build !windows

package server

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func (s *Server) configureSignals() {
	signal.Notify(s.signals, syscall.SIGHUP)
}

func (s *Server) listenSignals(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-s.signals:
			if sig == syscall.SIGHUP {
				log.Info().Msgf("Reloading technology catalog: %+v", sig)
				_ = s.Reload()
			}
		}
	}
}
