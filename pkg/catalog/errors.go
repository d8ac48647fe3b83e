// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package catalog

import (
	"errors"
	"fmt"
)

const (
	errorCodeSourceRequired  = "CATALOG_SOURCE_REQUIRED"
	errorCodeSourceConflict  = "CATALOG_SOURCE_CONFLICT"
	errorCodeStorageDisabled = "CATALOG_STORAGE_DISABLED"
	errorCodeDowngrade       = "CATALOG_DOWNGRADE"
	errorCodeLoadFailed      = "CATALOG_LOAD_FAILED"
	errorCodeSyncFailed      = "CATALOG_SYNC_FAILED"
)

var (
	// ErrSourceRequired indicates neither --file nor --url was provided.
	ErrSourceRequired = errors.New("source required")
	// ErrSourceConflict indicates both --file and --url were provided.
	ErrSourceConflict = errors.New("multiple sources provided")
	// ErrStorageDisabled indicates no cache directory is configured.
	ErrStorageDisabled = errors.New("storage disabled")
	// ErrCatalogDowngrade indicates the incoming catalog is older than the cached one.
	ErrCatalogDowngrade = errors.New("catalog downgrade")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with a catalog error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewSourceRequiredError formats a missing source error.
func NewSourceRequiredError() error {
	return WithErrorCode(fmt.Errorf("%w: either --file or --url must be provided", ErrSourceRequired), errorCodeSourceRequired)
}

// NewSourceConflictError formats a conflicting source error.
func NewSourceConflictError() error {
	return WithErrorCode(fmt.Errorf("%w: only one of --file or --url may be provided at a time", ErrSourceConflict), errorCodeSourceConflict)
}

// NewStorageDisabledError formats a storage disabled error.
func NewStorageDisabledError() error {
	return WithErrorCode(fmt.Errorf("%w: storage disabled; specify --cache-dir", ErrStorageDisabled), errorCodeStorageDisabled)
}

// NewDowngradeError formats a refused downgrade.
func NewDowngradeError(current, incoming string) error {
	return WithErrorCode(fmt.Errorf("%w: cached catalog %s is newer than %s", ErrCatalogDowngrade, current, incoming), errorCodeDowngrade)
}

// WrapSyncError annotates a sync failure.
func WrapSyncError(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeSyncFailed)
}

// LoadError reports a catalog source that could not be read or parsed. It
// is never fatal; loading falls back to the next source.
type LoadError struct {
	Source string
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load %s catalog %s: %v", e.Source, e.Path, e.Err)
	}
	return fmt.Sprintf("load %s catalog: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Code implements errorCoder.
func (e *LoadError) Code() string {
	return errorCodeLoadFailed
}

// ErrorCode resolves an error to its catalog error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrSourceRequired):
		return errorCodeSourceRequired
	case errors.Is(err, ErrSourceConflict):
		return errorCodeSourceConflict
	case errors.Is(err, ErrStorageDisabled):
		return errorCodeStorageDisabled
	case errors.Is(err, ErrCatalogDowngrade):
		return errorCodeDowngrade
	default:
		return errorCodeSyncFailed
	}
}

// ExitCode maps catalog errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrSourceRequired),
		errors.Is(err, ErrSourceConflict):
		return 2
	case errors.Is(err, ErrCatalogDowngrade):
		return 3
	case errors.Is(err, ErrStorageDisabled):
		return 7
	default:
		return 1
	}
}

// HTTPStatus maps catalog errors to HTTP status codes.
func HTTPStatus(err error) int {
	if err == nil {
		return 200
	}

	switch {
	case errors.Is(err, ErrSourceRequired),
		errors.Is(err, ErrSourceConflict):
		return 400
	case errors.Is(err, ErrCatalogDowngrade):
		return 409
	case errors.Is(err, ErrStorageDisabled):
		return 503
	default:
		return 500
	}
}

// Suggestions provides CLI hints for catalog errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeSourceRequired:
		return []string{
			"Provide a source:          --file <path> or --url <address>",
			"Example:                   stackscan catalog sync --url https://example.com/technologies.json",
		}
	case errorCodeSourceConflict:
		return []string{
			"Use only one source flag",
			"Remove either --file or --url",
		}
	case errorCodeStorageDisabled:
		return []string{
			"Set a cache directory:     --cache-dir <dir> or catalog.cache_dir in config",
		}
	case errorCodeDowngrade:
		return []string{
			"Pass --force to replace the cached catalog with an older version",
		}
	case errorCodeLoadFailed, errorCodeSyncFailed:
		return []string{
			"Validate the file:         stackscan catalog validate <file>",
			"Check connectivity for remote catalogs",
		}
	default:
		return nil
	}
}
