// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/vulntor/stackscan/pkg/catalog"
	"github.com/vulntor/stackscan/pkg/server"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

// Summary represents operation results for consistent formatting
type Summary struct {
	Operation   string        // Operation name: "detect", "sync", ...
	Success     int           // Successful operation count
	Failed      int           // Failed operation count
	Errors      []ErrorDetail // First N errors (truncated for display)
	TotalErrors int           // Total error count (for truncation message)
}

// ErrorDetail represents a single error with context
type ErrorDetail struct {
	Target    string `json:"target"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code,omitempty"`
}

const (
	maxErrorsToShow = 5 // Maximum errors to display before truncating
)

// PrintSuccessSummary prints a standardized success message
// Examples:
//   - "✓ Synced catalog v6.10.0"
//   - "✓ Validate completed successfully"
func (f *formatter) PrintSuccessSummary(operation, subject, detail string) error {
	if f.quiet {
		if subject != "" && detail != "" {
			_, err := fmt.Fprintf(f.stdout, "%s %s\n", subject, detail)
			return err
		}
		return nil
	}

	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]any{
			"success":   true,
			"operation": operation,
			"subject":   subject,
			"detail":    detail,
		})
	}

	var message string
	if subject != "" {
		message = strings.TrimSpace(fmt.Sprintf("✓ %s %s %s", capitalize(operation), subject, detail))
	} else {
		message = fmt.Sprintf("✓ %s completed successfully", capitalize(operation))
	}

	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}

	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// PrintPartialFailureSummary prints partial failure with counts, errors, and suggestions
// Example output:
//
//	Summary:
//	  ✓ Detected: 3
//	  ✗ Failed:   1
//
//	Failed targets:
//	  - https://down.example: fetch https://down.example: status 503
//
//	💡 Suggestions:
//	  → Verify the URL is reachable: curl -I <url>
func (f *formatter) PrintPartialFailureSummary(summary Summary) error {
	if f.quiet {
		return nil
	}

	if f.mode == ModeJSON {
		// JSON mode: summary goes to stderr so stdout stays a single document
		enc := map[string]any{
			"success":       false,
			"partial":       true,
			"operation":     summary.Operation,
			"success_count": summary.Success,
			"failed_count":  summary.Failed,
			"errors":        summary.Errors,
		}
		return (&formatter{stdout: f.stderr, mode: ModeJSON}).PrintJSON(enc)
	}

	var sb strings.Builder

	sb.WriteString("\nSummary:\n")
	if summary.Success > 0 {
		line := fmt.Sprintf("  ✓ %s: %d\n", capitalize(getCountLabel(summary.Operation)), summary.Success)
		if f.color {
			line = color.GreenString("%s", line)
		}
		sb.WriteString(line)
	}
	if summary.Failed > 0 {
		line := fmt.Sprintf("  ✗ Failed:   %d\n", summary.Failed)
		if f.color {
			line = color.RedString("%s", line)
		}
		sb.WriteString(line)
	}

	if len(summary.Errors) > 0 {
		sb.WriteString("\nFailed targets:\n")
		for i, err := range summary.Errors {
			if i >= maxErrorsToShow {
				remaining := summary.TotalErrors - maxErrorsToShow
				sb.WriteString(fmt.Sprintf("  ... and %d more (use --output json for full list)\n", remaining))
				break
			}
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Target, err.Error))
		}

		suggestions := collectSuggestions(summary.Errors, summary.Operation)
		if len(suggestions) > 0 {
			sb.WriteString("\n💡 Suggestions:\n")
			for _, s := range suggestions {
				sb.WriteString(fmt.Sprintf("  → %s\n", s))
			}
		}
	}

	_, err := f.stderr.Write([]byte(sb.String()))
	return err
}

// PrintTotalFailureSummary prints total failure with error and suggestions.
// It returns err, marked as reported, so callers can hand it back to cobra
// for the exit code.
// Example output:
//
//	✗ Failed to detect: fetch https://example.com: context deadline exceeded
//
//	💡 Suggestions:
//	  → Increase the timeout:      --timeout 30s
func (f *formatter) PrintTotalFailureSummary(operation string, err error, errorCode string) error {
	if err == nil {
		return nil
	}
	if f.quiet {
		return err
	}

	if f.mode == ModeJSON {
		if writeErr := f.PrintJSON(map[string]any{
			"success":    false,
			"operation":  operation,
			"error":      err.Error(),
			"error_code": errorCode,
		}); writeErr != nil {
			return errors.Join(err, writeErr)
		}
		return &ReportedError{Err: err}
	}

	var sb strings.Builder

	errorMsg := fmt.Sprintf("✗ Failed to %s: %v", operation, err)
	if f.color {
		sb.WriteString(color.RedString("%s\n", errorMsg))
	} else {
		sb.WriteString(errorMsg + "\n")
	}

	suggestions := GetSuggestions(errorCode, operation)
	if len(suggestions) > 0 {
		sb.WriteString("\n💡 Suggestions:\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  → %s\n", s))
		}
	}

	if _, writeErr := f.stderr.Write([]byte(sb.String())); writeErr != nil {
		return errors.Join(err, writeErr)
	}
	return &ReportedError{Err: err}
}

// ReportedError marks an error whose failure summary was already printed.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }

func (e *ReportedError) Unwrap() error { return e.Err }

// IsReported reports whether err was already printed by a failure summary.
func IsReported(err error) bool {
	var reported *ReportedError
	return errors.As(err, &reported)
}

// suggestionGenerators holds hints for codes raised by the CLI itself.
// Domain codes are resolved through their packages' Suggestions.
var suggestionGenerators = map[string]func(string) []string{
	"PARTIAL_FAILURE": func(operation string) []string {
		return []string{
			fmt.Sprintf("See full details:        stackscan %s <urls> --output json", operation),
		}
	},
	"INVALID_OUTPUT": func(string) []string {
		return []string{
			"Use --output table or --output json",
		}
	},
	"TECHNOLOGY_NOT_FOUND": func(string) []string {
		return []string{
			"List known technologies:  stackscan catalog info --list",
			"Names are case sensitive",
		}
	},
	"CONFIG_LOAD_FAILED": func(string) []string {
		return []string{
			"Check the config file:    stackscan --config <path>",
			"Unset STACKSCAN_* variables to rule out bad overrides",
		}
	},
}

// codeOnly carries an error code so domain Suggestions can be reused for
// codes that arrive without their original error.
type codeOnly string

func (c codeOnly) Error() string { return string(c) }
func (c codeOnly) Code() string  { return string(c) }

// GetSuggestions returns actionable hints based on error code and operation.
func GetSuggestions(errorCode, operation string) []string {
	if errorCode == "" {
		return nil
	}
	if generator, ok := suggestionGenerators[errorCode]; ok {
		return generator(operation)
	}

	coded := codeOnly(errorCode)
	switch {
	case strings.HasPrefix(errorCode, "SERVER_"):
		return server.Suggestions(coded)
	case strings.HasPrefix(errorCode, "CATALOG_"):
		return catalog.Suggestions(coded)
	default:
		return techdetect.Suggestions(coded)
	}
}

// collectSuggestions gathers unique suggestions from multiple errors
func collectSuggestions(errs []ErrorDetail, operation string) []string {
	seen := make(map[string]bool)
	var suggestions []string

	for _, err := range errs {
		for _, hint := range GetSuggestions(err.ErrorCode, operation) {
			if !seen[hint] {
				seen[hint] = true
				suggestions = append(suggestions, hint)
			}
		}
	}

	return suggestions
}

// capitalize capitalizes the first letter of a string
func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// getCountLabel returns the past tense label used in count lines.
func getCountLabel(operation string) string {
	switch operation {
	case "detect":
		return "detected"
	case "sync":
		return "synced"
	case "validate":
		return "validated"
	default:
		return operation
	}
}
