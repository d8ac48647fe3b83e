package server

import (
	"errors"
	"fmt"
)

// Error codes reported by 'stackscan server start'.
const (
	CodeInvalidPort        = "SERVER_INVALID_PORT"
	CodeInvalidConcurrency = "SERVER_INVALID_CONCURRENCY"
	CodeConfigUnavailable  = "SERVER_CONFIG_UNAVAILABLE"
	CodeInvalidConfig      = "SERVER_INVALID_CONFIG"
	CodeCatalogInit        = "SERVER_CATALOG_INIT_FAILED"
	CodeTelemetryInit      = "SERVER_TELEMETRY_INIT_FAILED"
	CodeAppInit            = "SERVER_INIT_FAILED"
	CodeRuntime            = "SERVER_RUNTIME_FAILED"
)

var (
	// ErrInvalidPort indicates an invalid port flag value.
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidConcurrency indicates an invalid batch worker count.
	ErrInvalidConcurrency = errors.New("invalid concurrency")
	// ErrConfigUnavailable indicates the CLI context lacked a config manager.
	ErrConfigUnavailable = errors.New("config manager unavailable")
)

// failure describes how a startup error surfaces on the command line.
type failure struct {
	exit        int
	suggestions []string
}

var failures = map[string]failure{
	CodeInvalidPort: {exit: 2, suggestions: []string{
		"Use a port between 1 and 65535",
		"Example:                 stackscan server start --port 8080",
	}},
	CodeInvalidConcurrency: {exit: 2, suggestions: []string{
		"Batch detection needs at least one worker",
		"Example:                 stackscan server start --concurrency 4",
	}},
	CodeInvalidConfig: {exit: 2, suggestions: []string{
		"Check the server, detect and catalog sections of the config file",
		"Retry with --log.level debug to see every failing field",
	}},
	CodeConfigUnavailable: {exit: 1, suggestions: []string{
		"Start the server through the stackscan binary so configuration is loaded",
	}},
	CodeCatalogInit: {exit: 7, suggestions: []string{
		"Check that --catalog.path exists and its directory is readable",
		"Validate the file:       stackscan catalog validate <path>",
		"Or drop --catalog.watch to serve the catalog without reloads",
	}},
	CodeTelemetryInit: {exit: 7, suggestions: []string{
		"Check that the --telemetry.file directory exists and is writable",
		"Leave --telemetry.file empty to disable detection events",
	}},
	CodeAppInit: {exit: 7, suggestions: []string{
		"Retry with --log.level debug for details",
	}},
	CodeRuntime: {exit: 1, suggestions: []string{
		"Ensure no other process listens on the selected address",
		"Check the server log for the failing component",
	}},
}

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

// WithErrorCode annotates err with a server error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewInvalidPortError reports a port outside 1-65535.
func NewInvalidPortError(port int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid port %d: must be between 1 and 65535", ErrInvalidPort, port), CodeInvalidPort)
}

// NewInvalidConcurrencyError reports a batch worker count below one.
func NewInvalidConcurrencyError(concurrency int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid concurrency %d: must be at least 1", ErrInvalidConcurrency, concurrency), CodeInvalidConcurrency)
}

// WrapInvalidConfig annotates config validation failures.
func WrapInvalidConfig(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("invalid server configuration: %w", err), CodeInvalidConfig)
}

// WrapCatalogInit annotates failures setting up the catalog watcher.
func WrapCatalogInit(err error) error {
	return WithErrorCode(err, CodeCatalogInit)
}

// WrapTelemetryInit annotates failures opening the telemetry file.
func WrapTelemetryInit(err error) error {
	return WithErrorCode(err, CodeTelemetryInit)
}

// WrapAppInit annotates app construction failures. An error that already
// carries a server code keeps it.
func WrapAppInit(err error) error {
	if hasCode(err) {
		return err
	}
	return WithErrorCode(err, CodeAppInit)
}

// WrapRuntime annotates failures while serving.
func WrapRuntime(err error) error {
	if hasCode(err) {
		return err
	}
	return WithErrorCode(err, CodeRuntime)
}

func hasCode(err error) bool {
	var coded *withCodeError
	return errors.As(err, &coded)
}

// ErrorCode resolves a server error to its error code. Uncoded errors are
// runtime failures.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) && coded.Code() != "" {
		return coded.Code()
	}

	switch {
	case errors.Is(err, ErrInvalidPort):
		return CodeInvalidPort
	case errors.Is(err, ErrInvalidConcurrency):
		return CodeInvalidConcurrency
	case errors.Is(err, ErrConfigUnavailable):
		return CodeConfigUnavailable
	}
	return CodeRuntime
}

// ExitCode maps server errors to CLI exit codes: 2 for bad input, 7 when a
// component could not be initialized and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if f, ok := failures[ErrorCode(err)]; ok {
		return f.exit
	}
	return 1
}

// Suggestions provides CLI hints for server errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}
	return failures[ErrorCode(err)].suggestions
}
