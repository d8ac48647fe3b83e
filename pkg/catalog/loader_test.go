// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const yamlCatalog = `version: 3.0.0
technologies:
  Custom:
    html: custom-marker
`

func TestLoad_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlCatalog), 0o644))

	res := Load(Options{Path: path, Logger: zerolog.Nop()})
	require.Equal(t, SourceFile, res.Source)
	require.Equal(t, path, res.Path)
	require.Equal(t, "3.0.0", res.Document.Version)
	require.Contains(t, res.Document.Technologies, "Custom")
	require.False(t, res.LoadedAt.IsZero())
}

func TestLoad_FallsBackToCache(t *testing.T) {
	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(CachePath(cacheDir), []byte(yamlCatalog), 0o644))

	res := Load(Options{Path: filepath.Join(t.TempDir(), "missing.json"), CacheDir: cacheDir, Logger: zerolog.Nop()})
	require.Equal(t, SourceCache, res.Source)
	require.Contains(t, res.Document.Technologies, "Custom")
}

func TestLoad_FallsBackToEmbedded(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{nope"), 0o644))

	res := Load(Options{Path: broken, CacheDir: dir, Logger: zerolog.Nop()})
	require.Equal(t, SourceEmbedded, res.Source)
	require.Contains(t, res.Document.Technologies, "WordPress")
	require.Equal(t, "embedded", res.Describe())
}

func TestLoad_CorruptCacheFallsBack(t *testing.T) {
	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(CachePath(cacheDir), []byte("{broken"), 0o644))

	res := Load(Options{CacheDir: cacheDir, Logger: zerolog.Nop()})
	require.Equal(t, SourceEmbedded, res.Source)
}

func TestCompile_CarriesMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlCatalog), 0o644))

	res := Load(Options{Path: path, Logger: zerolog.Nop()})
	compiled := Compile(res, zerolog.Nop())
	require.Equal(t, 1, compiled.Len())
	require.Equal(t, "3.0.0", compiled.Metadata().Version)
	require.Equal(t, SourceFile, compiled.Metadata().Source)
	require.Equal(t, res.LoadedAt, compiled.Metadata().LoadedAt)
}

func TestFormatFromPath(t *testing.T) {
	require.Equal(t, FormatJSON, FormatFromPath("a/b.JSON"))
	require.Equal(t, FormatYAML, FormatFromPath("a.yml"))
	require.Equal(t, FormatYAML, FormatFromPath("a.yaml"))
	require.Equal(t, FormatAuto, FormatFromPath(CacheFileName))
	require.Empty(t, CachePath(""))
}
