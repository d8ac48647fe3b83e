package api

import (
	"errors"
	"time"
)

// Sentinel errors for configuration validation
var (
	// ErrInvalidTimeout is returned when a timeout value is invalid (negative).
	ErrInvalidTimeout = errors.New("invalid timeout: must be >= 0")
	// ErrInvalidBatchSize is returned when MaxBatchSize is negative.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be >= 0")
)

// Config holds API-level configuration.
type Config struct {
	// HandlerTimeout is the maximum duration for an API handler to complete.
	// It is applied only when the request context has no deadline yet, and
	// must exceed the detector's maximum fetch timeout so fetch timeouts are
	// reported as such.
	HandlerTimeout time.Duration

	// MaxBatchSize caps the number of URLs in one batch request. Zero disables the cap.
	MaxBatchSize int
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{
		HandlerTimeout: 75 * time.Second,
		MaxBatchSize:   50,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.HandlerTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBatchSize < 0 {
		return ErrInvalidBatchSize
	}
	return nil
}
