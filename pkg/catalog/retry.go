// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"
)

// RetryConfig controls exponential backoff for remote catalog downloads.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts; 0 means a single attempt.
	MaxAttempts int
	// InitialWait is the delay before the first retry.
	InitialWait time.Duration
	// MaxWait caps the delay between retries.
	MaxWait time.Duration
	// Multiplier grows the delay after each retry. Must be >= 1.
	Multiplier float64
	// Jitter adds up to ±25% randomness to each delay.
	Jitter bool
}

// DefaultRetryConfig returns three attempts with doubling delays.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Second,
		MaxWait:     30 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// NoRetry returns a config that disables retries.
func NoRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 0}
}

// Validate checks the config for impossible values.
func (rc RetryConfig) Validate() error {
	if rc.MaxAttempts < 0 {
		return fmt.Errorf("MaxAttempts must be >= 0, got %d", rc.MaxAttempts)
	}
	if rc.MaxAttempts == 0 {
		return nil
	}
	if rc.InitialWait < 0 {
		return fmt.Errorf("InitialWait must be >= 0, got %v", rc.InitialWait)
	}
	if rc.MaxWait < 0 {
		return fmt.Errorf("MaxWait must be >= 0, got %v", rc.MaxWait)
	}
	if rc.Multiplier < 1.0 {
		return fmt.Errorf("multiplier must be >= 1.0, got %f", rc.Multiplier)
	}
	if rc.MaxWait > 0 && rc.InitialWait > rc.MaxWait {
		return fmt.Errorf("InitialWait (%v) must be <= MaxWait (%v)", rc.InitialWait, rc.MaxWait)
	}
	return nil
}

func (rc RetryConfig) calculateWait(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	wait := float64(rc.InitialWait) * math.Pow(rc.Multiplier, float64(attempt-1))
	if rc.MaxWait > 0 && wait > float64(rc.MaxWait) {
		wait = float64(rc.MaxWait)
	}
	if rc.Jitter {
		jitterRange := wait * 0.25
		wait += (rand.Float64() * 2 * jitterRange) - jitterRange
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// StatusError is a non-success response from a remote catalog source.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status code: %d", e.URL, e.StatusCode)
}

// isRetryableError reports whether err is a transient network failure or a
// temporary upstream status (502, 503, 504).
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"temporary failure",
		"i/o timeout",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// WithRetry runs fn until it succeeds, returns a non-retryable error, the
// attempts run out or ctx is done.
func WithRetry(ctx context.Context, config RetryConfig, fn func(ctx context.Context) error) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid retry config: %w", err)
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return err
		}

		if attempt < maxAttempts-1 {
			select {
			case <-time.After(config.calculateWait(attempt + 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("max attempts (%d) exceeded: %w", maxAttempts, lastErr)
}
