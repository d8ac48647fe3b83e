// pkg/server/server.go
package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Server owns the process level signal handling of 'stackscan server start'.
// A reload signal re-reads the technology catalog without restarting.
type Server struct {
	signals  chan os.Signal
	stopChan chan bool

	reload func() error
	wg     sync.WaitGroup
	once   sync.Once
}

// NewServer creates a Server that calls reload on each reload signal.
// reload may be nil, in which case reload signals are only logged.
func NewServer(reload func() error) *Server {
	srv := &Server{
		signals:  make(chan os.Signal, 1),
		stopChan: make(chan bool, 1),
		reload:   reload,
	}

	srv.configureSignals()

	return srv
}

// Start begins listening for signals. Stop is called once ctx is done.
func (s *Server) Start(ctx context.Context) {
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		logger := log.Ctx(ctx)
		logger.Info().Msg("Stopping server gracefully...")
		s.Stop()
	}()

	go func() {
		defer s.wg.Done()
		s.listenSignals(ctx)
	}()
}

// Wait blocks until Stop is called.
func (s *Server) Wait() {
	<-s.stopChan
}

// Stop unblocks Wait. Calling it more than once is harmless.
func (s *Server) Stop() {
	select {
	case s.stopChan <- true:
		log.Info().Msg("Server stopped")
	default:
	}
}

// Close releases the signal handlers. The context given to Start must be
// done before Close is called.
func (s *Server) Close() {
	s.once.Do(func() {
		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		timer := time.NewTimer(10 * time.Second)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			log.Error().Err(errors.New("timeout")).Msg("Signal listeners did not stop")
		}

		signal.Stop(s.signals)
	})
}

// Reload runs the reload callback once, logging the outcome.
func (s *Server) Reload() error {
	if s.reload == nil {
		log.Warn().Msg("Reload requested but no catalog reloader is configured")
		return nil
	}
	if err := s.reload(); err != nil {
		log.Error().Err(err).Msg("Catalog reload failed, keeping current catalog")
		return err
	}
	log.Info().Msg("Catalog reloaded")
	return nil
}
