// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Event outcomes recorded by the telemetry writer.
const (
	OutcomeDetected = "detected"
	OutcomeNoMatch  = "no_match"
	OutcomeFailed   = "failed"
)

// DetectionEvent is one line in the telemetry JSONL file.
type DetectionEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	URL          string    `json:"url"`
	FinalURL     string    `json:"final_url,omitempty"`
	Outcome      string    `json:"outcome"`
	Technologies []string  `json:"technologies,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	ErrorCode    string    `json:"error_code,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// TelemetryWriter appends detection events to a JSONL file. It is safe for
// concurrent use.
type TelemetryWriter struct {
	filePath string
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	enabled  bool
}

// NewTelemetryWriter opens filePath for appending. An empty path returns a
// disabled writer.
func NewTelemetryWriter(filePath string) (*TelemetryWriter, error) {
	if filePath == "" {
		return &TelemetryWriter{enabled: false}, nil
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry file: %w", err)
	}

	return &TelemetryWriter{
		filePath: filePath,
		file:     file,
		encoder:  json.NewEncoder(file),
		enabled:  true,
	}, nil
}

// Write appends event.
func (w *TelemetryWriter) Write(event DetectionEvent) error {
	if w == nil || !w.enabled {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to write telemetry event: %w", err)
	}
	return nil
}

// WriteReport records a completed detection.
func (w *TelemetryWriter) WriteReport(report *Report, elapsed time.Duration) error {
	names := make([]string, 0, len(report.Technologies))
	for name := range report.Technologies {
		names = append(names, name)
	}
	sort.Strings(names)

	outcome := OutcomeDetected
	if len(names) == 0 {
		outcome = OutcomeNoMatch
	}

	return w.Write(DetectionEvent{
		Timestamp:    time.Now(),
		URL:          report.URL,
		FinalURL:     report.FinalURL,
		Outcome:      outcome,
		Technologies: names,
		DurationMS:   elapsed.Milliseconds(),
	})
}

// WriteFailure records a detection that ended in err.
func (w *TelemetryWriter) WriteFailure(url string, err error, elapsed time.Duration) error {
	return w.Write(DetectionEvent{
		Timestamp:  time.Now(),
		URL:        url,
		Outcome:    OutcomeFailed,
		DurationMS: elapsed.Milliseconds(),
		ErrorCode:  ErrorCode(err),
		Error:      err.Error(),
	})
}

// Close closes the telemetry file.
func (w *TelemetryWriter) Close() error {
	if w == nil || !w.enabled {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close telemetry file: %w", err)
	}
	w.file = nil
	return nil
}

// IsEnabled returns true if telemetry is enabled.
func (w *TelemetryWriter) IsEnabled() bool {
	return w != nil && w.enabled
}
