// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/vulntor/stackscan/pkg/techdetect"
)

// Source loads raw catalog bytes (JSON or YAML).
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// Store persists catalog bytes, typically into the cache directory.
type Store interface {
	Save(ctx context.Context, data []byte) error
}

// SyncResult summarizes a completed sync.
type SyncResult struct {
	Document        *Document
	Compiled        *techdetect.CompiledCatalog
	PreviousVersion string
}

// Service orchestrates catalog synchronization: load, validate, guard
// against downgrades, save and notify.
type Service struct {
	Source Source
	Store  Store
	// Force allows replacing a newer cached catalog with an older one.
	Force bool
	Retry RetryConfig
	// OnSynced receives the freshly compiled catalog, e.g. Detector.Swap.
	OnSynced func(*techdetect.CompiledCatalog)
	Logger   zerolog.Logger
}

// Sync fetches the catalog from Source, validates it, writes it using Store
// and hands the compiled result to OnSynced.
func (s Service) Sync(ctx context.Context) (*SyncResult, error) {
	if s.Source == nil {
		return nil, NewSourceRequiredError()
	}
	if s.Store == nil {
		return nil, NewStorageDisabledError()
	}
	logger := s.Logger.With().Str("component", "catalog.sync").Logger()

	var data []byte
	err := WithRetry(ctx, s.Retry, func(ctx context.Context) error {
		var loadErr error
		data, loadErr = s.Source.Load(ctx)
		return loadErr
	})
	if err != nil {
		return nil, WrapSyncError(fmt.Errorf("load catalog: %w", err))
	}

	doc, err := Parse(data, FormatAuto)
	if err != nil {
		return nil, WrapSyncError(fmt.Errorf("validate catalog: %w", err))
	}
	if len(doc.Technologies) == 0 {
		return nil, WrapSyncError(errors.New("validate catalog: no technologies defined"))
	}

	previous := s.currentVersion(ctx, logger)
	if !s.Force {
		if err := checkDowngrade(previous, doc.Version); err != nil {
			return nil, err
		}
	}

	if err := s.Store.Save(ctx, data); err != nil {
		return nil, WrapSyncError(fmt.Errorf("save catalog: %w", err))
	}

	compiled, skipped := techdetect.Compile(doc.Technologies,
		techdetect.WithMetadata(techdetect.Metadata{
			Version:  doc.Version,
			Source:   SourceCache,
			LoadedAt: time.Now().UTC(),
		}),
	)
	logger.Info().
		Str("version", doc.Version).
		Str("previous", previous).
		Int("technologies", compiled.Len()).
		Int("skipped", skipped).
		Int("rejected", len(doc.Rejected)).
		Msg("catalog synced")

	if s.OnSynced != nil {
		s.OnSynced(compiled)
	}

	return &SyncResult{Document: doc, Compiled: compiled, PreviousVersion: previous}, nil
}

func (s Service) currentVersion(ctx context.Context, logger zerolog.Logger) string {
	reader, ok := s.Store.(Source)
	if !ok {
		return ""
	}
	data, err := reader.Load(ctx)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Debug().Err(err).Msg("cached catalog unreadable; skipping downgrade check")
		}
		return ""
	}
	doc, err := Parse(data, FormatAuto)
	if err != nil {
		return ""
	}
	return doc.Version
}

// checkDowngrade refuses an incoming version that is strictly lower than the
// current one. Missing or non-semver versions are never compared.
func checkDowngrade(current, incoming string) error {
	if current == "" || incoming == "" {
		return nil
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return nil
	}
	in, err := semver.NewVersion(incoming)
	if err != nil {
		return nil
	}
	if in.LessThan(cur) {
		return NewDowngradeError(current, incoming)
	}
	return nil
}

// FileSource loads the catalog from a local file path.
type FileSource struct {
	Path string
}

func (f FileSource) Load(_ context.Context) ([]byte, error) {
	if f.Path == "" {
		return nil, errors.New("file path is empty")
	}
	return os.ReadFile(f.Path)
}

// HTTPSource downloads the catalog from a URL using the provided http.Client (or default).
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (h HTTPSource) Load(ctx context.Context) ([]byte, error) {
	if h.URL == "" {
		return nil, errors.New("url is empty")
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: h.URL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}
	return data, nil
}

// FileStore writes catalog bytes to a path on disk. Writers are serialized
// across processes with a lock file and the file is replaced atomically.
type FileStore struct {
	Path string
}

// Load reads the stored catalog. It lets the sync service compare versions.
func (f FileStore) Load(_ context.Context) ([]byte, error) {
	if f.Path == "" {
		return nil, errors.New("file store path is empty")
	}
	return os.ReadFile(f.Path)
}

func (f FileStore) Save(ctx context.Context, data []byte) error {
	if f.Path == "" {
		return errors.New("file store path is empty")
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}

	lock := flock.New(f.Path + ".lock")
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock catalog store: %w", err)
	}
	if !locked {
		return errors.New("lock catalog store: not acquired")
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp catalog: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp catalog: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}
