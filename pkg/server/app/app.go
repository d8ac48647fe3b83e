package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vulntor/stackscan/pkg/catalog"
	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/server"
	"github.com/vulntor/stackscan/pkg/server/api"
	"github.com/vulntor/stackscan/pkg/server/httpx"
	"github.com/vulntor/stackscan/pkg/server/jobs"
)

// handlerSlack is added to the maximum fetch timeout so a fetch timeout is
// reported before the handler deadline fires.
const handlerSlack = 15 * time.Second

// App orchestrates the server runtime components:
// - HTTP server (detection API, catalog API, usage page)
// - Batch detection worker pool
// - Catalog file watcher
type App struct {
	HTTP   *http.Server
	Jobs   jobs.Manager
	Ready  *atomic.Bool
	Config config.Config
	Deps   *Deps

	watcher *catalog.Watcher

	mu   sync.Mutex
	addr net.Addr
}

// New creates and configures a new server application.
func New(ctx context.Context, cfg config.Config, deps *Deps) (*App, error) {
	if deps == nil || deps.Detector == nil {
		return nil, errors.New("server app requires a detector")
	}
	deps.Logger.Info().Msg("Initializing server application")

	apiCfg := api.DefaultConfig()
	if limit := cfg.Detect.MaxTimeout + handlerSlack; limit > apiCfg.HandlerTimeout {
		apiCfg.HandlerTimeout = limit
	}
	if err := apiCfg.Validate(); err != nil {
		return nil, err
	}

	jobsMgr := jobs.NewMemoryManager(deps.Detector, cfg.Server.Concurrency)

	ready := &atomic.Bool{}
	apiDeps := &api.Deps{
		Detector: deps.Detector,
		Jobs:     jobsMgr,
		Config:   apiCfg,
		Ready:    ready,
	}

	router := httpx.NewRouter(apiDeps, cfg.Detect.Timeout)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Addr, strconv.Itoa(cfg.Server.Port)),
		Handler:      httpx.Chain(cfg.Server, router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	a := &App{
		HTTP:   httpServer,
		Jobs:   jobsMgr,
		Ready:  ready,
		Config: cfg,
		Deps:   deps,
	}

	switch {
	case !cfg.Catalog.Watch:
	case cfg.Catalog.Path == "":
		deps.Logger.Warn().Msg("catalog.watch is set but catalog.path is empty, not watching")
	case deps.Reload == nil:
		deps.Logger.Warn().Msg("catalog.watch is set but no reloader was provided, not watching")
	default:
		w, err := catalog.NewWatcher(cfg.Catalog.Path, deps.Reload, deps.Logger)
		if err != nil {
			return nil, server.WrapCatalogInit(fmt.Errorf("create catalog watcher: %w", err))
		}
		a.watcher = w
	}

	return a, nil
}

// Addr returns the bound listen address once Run has started listening,
// or nil before that.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Run starts the server and blocks until ctx is done or the HTTP server
// fails.
func (a *App) Run(ctx context.Context) error {
	a.Deps.Logger.Info().
		Str("addr", a.HTTP.Addr).
		Int("concurrency", a.Config.Server.Concurrency).
		Bool("watch", a.watcher != nil).
		Int("technologies", a.Deps.Detector.Catalog().Len()).
		Msg("Starting stackscan server")

	ln, err := net.Listen("tcp", a.HTTP.Addr)
	if err != nil {
		a.closeWatcher()
		return fmt.Errorf("listen on %s: %w", a.HTTP.Addr, err)
	}
	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()

	serverErr := make(chan error, 1)
	go func() {
		if err := a.HTTP.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if err := a.Jobs.Start(ctx); err != nil {
		_ = a.HTTP.Close()
		a.closeWatcher()
		return fmt.Errorf("start jobs: %w", err)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	watchDone := make(chan struct{})
	if a.watcher != nil {
		go func() {
			defer close(watchDone)
			if err := a.watcher.Start(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.Deps.Logger.Error().Err(err).Msg("Catalog watcher stopped")
			}
		}()
	} else {
		close(watchDone)
	}

	a.Ready.Store(true)
	a.Deps.Logger.Info().Str("addr", ln.Addr().String()).Msg("Server is ready and accepting connections")

	var runErr error
	select {
	case <-ctx.Done():
		a.Deps.Logger.Info().Msg("Shutdown signal received")
	case runErr = <-serverErr:
		a.Deps.Logger.Error().Err(runErr).Msg("Server error")
	}

	stopWatch()
	<-watchDone

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() error {
	a.Deps.Logger.Info().Msg("Initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.Ready.Store(false)

	a.Deps.Logger.Info().Msg("Shutting down HTTP server...")
	if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
		return err
	}
	a.Deps.Logger.Info().Msg("HTTP server stopped")

	a.Deps.Logger.Info().Msg("Stopping batch workers...")
	if err := a.Jobs.Stop(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("Jobs shutdown failed")
		return err
	}
	a.Deps.Logger.Info().Msg("Batch workers stopped")

	a.Deps.Logger.Info().Msg("Server shutdown complete")
	return nil
}

func (a *App) closeWatcher() {
	if a.watcher == nil {
		return
	}
	if err := a.watcher.Close(); err != nil {
		a.Deps.Logger.Warn().Err(err).Msg("Error closing catalog watcher")
	}
}
