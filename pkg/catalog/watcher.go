// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/vulntor/stackscan/pkg/techdetect"
)

// DefaultDebounce coalesces bursts of writes into one reload.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a catalog file when it changes on disk. Reload runs off
// the request path; the callback is expected to compile and swap.
type Watcher struct {
	path          string
	reload        func() error
	watcher       *fsnotify.Watcher
	debounceDelay time.Duration
	logger        zerolog.Logger

	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher creates a watcher for path. reload is called after each
// debounced change. The parent directory is watched so that atomic
// replacements are seen; it must exist.
func NewWatcher(path string, reload func() error, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch catalog directory %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{
		path:          path,
		reload:        reload,
		watcher:       fw,
		debounceDelay: DefaultDebounce,
		logger:        logger.With().Str("component", "catalog.watcher").Logger(),
	}, nil
}

// SetDebounce overrides the debounce delay. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounceDelay = d
	}
}

// Start blocks until ctx is done, reloading on writes to the watched file.
func (w *Watcher) Start(ctx context.Context) error {
	name := filepath.Base(w.path)

	w.logger.Info().
		Str("file", w.path).
		Dur("debounce", w.debounceDelay).
		Msg("Started watching catalog file")

	defer func() {
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
		w.logger.Info().Msg("Stopped watching catalog file")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.logger.Debug().
					Str("op", event.Op.String()).
					Str("file", event.Name).
					Msg("Detected catalog file change")
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		if err := w.reload(); err != nil {
			w.logger.Error().Err(err).Msg("Failed to reload catalog")
			return
		}
		w.logger.Info().Msg("Catalog reloaded")
	})
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Reloader returns a reload callback that re-reads path, compiles it and
// hands the result to swap. A file that fails to load leaves the current
// catalog in place.
func Reloader(path, source string, swap func(*techdetect.CompiledCatalog), logger zerolog.Logger) func() error {
	return func() error {
		doc, err := LoadFile(path)
		if err != nil {
			return &LoadError{Source: source, Path: path, Err: err}
		}
		if len(doc.Technologies) == 0 {
			return &LoadError{Source: source, Path: path, Err: fmt.Errorf("no technologies defined")}
		}
		res := &Result{Document: doc, Source: source, Path: path, LoadedAt: time.Now().UTC()}
		swap(Compile(res, logger))
		return nil
	}
}
