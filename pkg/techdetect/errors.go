// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import (
	"context"
	"errors"
	"fmt"
	"net"
)

const (
	errorCodeURLRequired  = "URL_REQUIRED"
	errorCodeInvalidURL   = "INVALID_URL"
	errorCodeFetchFailed  = "FETCH_FAILED"
	errorCodeFetchTimeout = "FETCH_TIMEOUT"
	errorCodeUnexpected   = "UNEXPECTED_ERROR"
)

var (
	// ErrURLRequired indicates the detect request carried no target URL.
	ErrURLRequired = errors.New("url required")
	// ErrInvalidURL indicates the target URL could not be parsed as http(s).
	ErrInvalidURL = errors.New("invalid url")
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

// WithErrorCode annotates err with a detection error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewURLRequiredError formats a missing url error.
func NewURLRequiredError() error {
	return WithErrorCode(fmt.Errorf("%w: missing url parameter", ErrURLRequired), errorCodeURLRequired)
}

// NewInvalidURLError formats an unparsable url error.
func NewInvalidURLError(raw string, cause error) error {
	if cause != nil {
		return WithErrorCode(fmt.Errorf("%w %q: %v", ErrInvalidURL, raw, cause), errorCodeInvalidURL)
	}
	return WithErrorCode(fmt.Errorf("%w %q", ErrInvalidURL, raw), errorCodeInvalidURL)
}

// FetchError reports a failed page fetch. StatusCode is set when the server
// answered with a non-success status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the fetch failed because its deadline expired.
func (e *FetchError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Code implements errorCoder.
func (e *FetchError) Code() string {
	if e.Timeout() {
		return errorCodeFetchTimeout
	}
	return errorCodeFetchFailed
}

// UnexpectedError wraps an internal failure, including panics recovered
// while matching. Only the message is exposed to callers.
type UnexpectedError struct {
	Message string
}

func (e *UnexpectedError) Error() string {
	return "unexpected error: " + e.Message
}

// Code implements errorCoder.
func (e *UnexpectedError) Code() string {
	return errorCodeUnexpected
}

// PatternError describes one catalog pattern that failed to compile. It is
// never fatal; the pattern is skipped and counted.
type PatternError struct {
	Technology string
	Kind       Kind
	Field      string
	Source     string
	Err        error
}

func (e PatternError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s[%s] pattern %q: %v", e.Technology, e.Kind, e.Field, e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %s pattern %q: %v", e.Technology, e.Kind, e.Source, e.Err)
}

func (e PatternError) Unwrap() error {
	return e.Err
}

// ErrorCode resolves an error to its detection error code.
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
	case errors.Is(err, ErrURLRequired):
		return errorCodeURLRequired
	case errors.Is(err, ErrInvalidURL):
		return errorCodeInvalidURL
	default:
		return errorCodeUnexpected
	}
}

// ExitCode maps detection errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch ErrorCode(err) {
	case errorCodeURLRequired, errorCodeInvalidURL:
		return 2
	case errorCodeFetchFailed, errorCodeFetchTimeout:
		return 4
	default:
		return 1
	}
}

// HTTPStatus maps detection errors to HTTP status codes.
func HTTPStatus(err error) int {
	if err == nil {
		return 200
	}

	switch ErrorCode(err) {
	case errorCodeURLRequired, errorCodeInvalidURL:
		return 400
	case errorCodeFetchTimeout:
		return 504
	case errorCodeFetchFailed:
		return 502
	default:
		return 500
	}
}

// Suggestions provides CLI hints for detection errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeURLRequired:
		return []string{
			"Provide a target:          stackscan detect https://example.com",
		}
	case errorCodeInvalidURL:
		return []string{
			"Use an absolute http(s) URL",
			"Bare hostnames are accepted and default to https://",
		}
	case errorCodeFetchTimeout:
		return []string{
			"Increase the timeout:      --timeout 30s",
			"Check that the site responds from this network",
		}
	case errorCodeFetchFailed:
		return []string{
			"Verify the URL is reachable: curl -I <url>",
			"Pass session cookies with --cookie when the page requires login",
		}
	default:
		return nil
	}
}
