package commands

import (
	"errors"
	"strings"

	"github.com/vulntor/stackscan/cmd/stackscan/internal/bind"
	"github.com/vulntor/stackscan/pkg/catalog"
	"github.com/vulntor/stackscan/pkg/server"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

const (
	errorCodeInvalidOutput  = "INVALID_OUTPUT"
	errorCodeConfigLoad     = "CONFIG_LOAD_FAILED"
	errorCodePartialFailure = "PARTIAL_FAILURE"
)

// ErrPartialFailure is returned when some, but not all, targets failed.
var ErrPartialFailure = errors.New("partial failure")

// ErrorCode resolves any CLI error to the code shown in failure summaries.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPartialFailure):
		return errorCodePartialFailure
	case errors.Is(err, bind.ErrInvalidOutput):
		return errorCodeInvalidOutput
	case errors.Is(err, errConfigLoad):
		return errorCodeConfigLoad
	case errors.Is(err, server.ErrInvalidPort),
		errors.Is(err, server.ErrInvalidConcurrency),
		errors.Is(err, server.ErrConfigUnavailable):
		return server.ErrorCode(err)
	case errors.Is(err, catalog.ErrSourceRequired),
		errors.Is(err, catalog.ErrSourceConflict),
		errors.Is(err, catalog.ErrStorageDisabled),
		errors.Is(err, catalog.ErrCatalogDowngrade):
		return catalog.ErrorCode(err)
	}
	// techdetect resolves any error carrying its own code.
	return techdetect.ErrorCode(err)
}

// ExitCode maps err to the process exit status.
//
//	0  success
//	1  unexpected failure
//	2  invalid usage (missing url, bad flag value, bad config)
//	3  catalog downgrade refused
//	4  target fetch failed or timed out
//	7  server or catalog initialization failed
//	8  partial failure across several targets
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	code := ErrorCode(err)
	switch {
	case code == errorCodePartialFailure:
		return 8
	case code == errorCodeInvalidOutput, code == errorCodeConfigLoad:
		return 2
	case strings.HasPrefix(code, "SERVER_"):
		return server.ExitCode(err)
	case strings.HasPrefix(code, "CATALOG_"):
		return catalog.ExitCode(err)
	default:
		return techdetect.ExitCode(err)
	}
}
