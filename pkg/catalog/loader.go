// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vulntor/stackscan/pkg/techdetect"
)

// Catalog origins reported in metadata and logs.
const (
	SourceFile     = "file"
	SourceCache    = "cache"
	SourceEmbedded = "embedded"
	SourceEmpty    = "empty"

	// CacheFileName is the name of the synced catalog inside a cache directory.
	CacheFileName = "technologies.cache"
)

//go:embed data/technologies.json
var embeddedCatalogJSON []byte

// Options selects where Load looks for a catalog.
type Options struct {
	Path     string // explicit catalog file, tried first
	CacheDir string // directory holding a synced catalog
	Logger   zerolog.Logger
}

// Result is a loaded catalog document and where it came from.
type Result struct {
	Document *Document
	Source   string
	Path     string
	LoadedAt time.Time
}

// CachePath returns the synced catalog path within cacheDir.
func CachePath(cacheDir string) string {
	if cacheDir == "" {
		return ""
	}
	return filepath.Join(cacheDir, CacheFileName)
}

// Load resolves a catalog from, in order, the explicit path, the cache
// directory and the embedded default. Every failure is logged as a
// LoadError and the next source is tried; when all fail the result holds an
// empty catalog.
func Load(opts Options) *Result {
	logger := opts.Logger.With().Str("component", "catalog").Logger()

	if opts.Path != "" {
		doc, err := LoadFile(opts.Path)
		if err == nil {
			return finish(logger, doc, SourceFile, opts.Path)
		}
		logLoadError(logger, &LoadError{Source: SourceFile, Path: opts.Path, Err: err})
	}

	if path := CachePath(opts.CacheDir); path != "" {
		doc, err := LoadFile(path)
		switch {
		case err == nil:
			return finish(logger, doc, SourceCache, path)
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug().Str("path", path).Msg("no cached catalog")
		default:
			logLoadError(logger, &LoadError{Source: SourceCache, Path: path, Err: err})
		}
	}

	doc, err := Embedded()
	if err == nil {
		return finish(logger, doc, SourceEmbedded, "")
	}
	logLoadError(logger, &LoadError{Source: SourceEmbedded, Err: err})

	return finish(logger, &Document{Technologies: techdetect.Catalog{}}, SourceEmpty, "")
}

// LoadFile reads and parses a catalog file. The format follows the file
// extension; unknown extensions are sniffed.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, FormatFromPath(path))
}

// Embedded parses the catalog compiled into the binary.
func Embedded() (*Document, error) {
	return Parse(embeddedCatalogJSON, FormatJSON)
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// Compile turns a load result into a compiled catalog carrying its
// provenance. Skipped patterns are logged at debug level.
func Compile(res *Result, logger zerolog.Logger) *techdetect.CompiledCatalog {
	logger = logger.With().Str("component", "catalog").Logger()

	compiled, skipped := techdetect.Compile(res.Document.Technologies,
		techdetect.WithMetadata(techdetect.Metadata{
			Version:  res.Document.Version,
			Source:   res.Source,
			LoadedAt: res.LoadedAt,
		}),
		techdetect.WithPatternErrorHandler(func(pe techdetect.PatternError) {
			logger.Debug().
				Str("technology", pe.Technology).
				Str("kind", string(pe.Kind)).
				Str("field", pe.Field).
				Str("pattern", pe.Source).
				Err(pe.Err).
				Msg("skipping pattern")
		}),
	)

	logger.Info().
		Str("source", res.Source).
		Str("version", res.Document.Version).
		Int("technologies", compiled.Len()).
		Int("skipped", skipped).
		Msg("catalog compiled")
	return compiled
}

func finish(logger zerolog.Logger, doc *Document, source, path string) *Result {
	for _, rej := range doc.Rejected {
		logger.Warn().Str("technology", rej.Name).Err(rej.Err).Msg("rejected catalog entry")
	}
	logger.Debug().
		Str("source", source).
		Str("path", path).
		Int("technologies", len(doc.Technologies)).
		Msg("catalog loaded")
	return &Result{Document: doc, Source: source, Path: path, LoadedAt: time.Now().UTC()}
}

func logLoadError(logger zerolog.Logger, err *LoadError) {
	logger.Warn().Err(err).Str("code", err.Code()).Msg("catalog source unavailable, falling back")
}

// Describe renders a one-line summary of a load result.
func (r *Result) Describe() string {
	if r.Path != "" {
		return fmt.Sprintf("%s (%s)", r.Source, r.Path)
	}
	return r.Source
}
