// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/stackscan/pkg/techdetect"
)

func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "catalog.json"), func() error { return nil }, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, DefaultDebounce, w.debounceDelay)

	w.SetDebounce(0)
	require.Equal(t, DefaultDebounce, w.debounceDelay)
	w.SetDebounce(10 * time.Millisecond)
	require.Equal(t, 10*time.Millisecond, w.debounceDelay)
	require.NoError(t, w.Close())
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "catalog.json")
	_, err := NewWatcher(path, func() error { return nil }, zerolog.Nop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "watch catalog directory")
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"A": {"html": "a"}}`), 0o644))

	var current atomic.Pointer[techdetect.CompiledCatalog]
	reload := Reloader(path, SourceFile, func(c *techdetect.CompiledCatalog) { current.Store(c) }, zerolog.Nop())

	w, err := NewWatcher(path, reload, zerolog.Nop())
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`{"A": {"html": "a"}, "B": {"html": "b"}}`), 0o644))

	require.Eventually(t, func() bool {
		c := current.Load()
		return c != nil && c.Len() == 2
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestReloader_KeepsCatalogOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	swaps := 0
	reload := Reloader(path, SourceFile, func(*techdetect.CompiledCatalog) { swaps++ }, zerolog.Nop())

	err := reload()
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, 0, swaps)

	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	require.Error(t, reload())
	require.Equal(t, 0, swaps)
}
