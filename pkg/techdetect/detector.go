// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/stackscan/pkg/fetch"
	"github.com/vulntor/stackscan/pkg/htmldoc"
)

const (
	// DefaultTimeout bounds a page fetch when the request carries none.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxTimeout is the largest timeout a request may ask for.
	DefaultMaxTimeout = 60 * time.Second
)

// Fetcher retrieves a page. Implementations must honor ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// Request is one detection request.
type Request struct {
	URL     string
	Timeout time.Duration
	Cookie  string
}

// Report is the result of a successful detection.
type Report struct {
	URL          string               `json:"url"`
	FinalURL     string               `json:"final_url,omitempty"`
	Technologies map[string]Detection `json:"technologies"`
}

// Detector runs the fetch, extract, evaluate and aggregate pipeline against
// a compiled catalog that can be replaced at runtime.
type Detector struct {
	catalog        atomic.Pointer[CompiledCatalog]
	fetcher        Fetcher
	logger         zerolog.Logger
	defaultTimeout time.Duration
	maxTimeout     time.Duration
	telemetry      *TelemetryWriter
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithLogger sets the detector logger.
func WithLogger(logger zerolog.Logger) DetectorOption {
	return func(d *Detector) {
		d.logger = logger
	}
}

// WithDefaultTimeout sets the fetch timeout used when a request has none.
func WithDefaultTimeout(timeout time.Duration) DetectorOption {
	return func(d *Detector) {
		if timeout > 0 {
			d.defaultTimeout = timeout
		}
	}
}

// WithMaxTimeout caps the fetch timeout a request may ask for.
func WithMaxTimeout(timeout time.Duration) DetectorOption {
	return func(d *Detector) {
		if timeout > 0 {
			d.maxTimeout = timeout
		}
	}
}

// WithTelemetry records every detection outcome to w.
func WithTelemetry(w *TelemetryWriter) DetectorOption {
	return func(d *Detector) {
		d.telemetry = w
	}
}

// NewDetector creates a detector over catalog. A nil catalog is treated as
// empty.
func NewDetector(catalog *CompiledCatalog, fetcher Fetcher, opts ...DetectorOption) *Detector {
	d := &Detector{
		fetcher:        fetcher,
		logger:         log.With().Str("component", "detector").Logger(),
		defaultTimeout: DefaultTimeout,
		maxTimeout:     DefaultMaxTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	if catalog == nil {
		catalog, _ = Compile(nil)
	}
	d.catalog.Store(catalog)
	return d
}

// Catalog returns the catalog currently in use.
func (d *Detector) Catalog() *CompiledCatalog {
	return d.catalog.Load()
}

// Swap publishes a new catalog. Requests already in flight finish with the
// catalog they started with.
func (d *Detector) Swap(catalog *CompiledCatalog) *CompiledCatalog {
	if catalog == nil {
		return d.catalog.Load()
	}
	old := d.catalog.Swap(catalog)
	d.logger.Info().
		Int("technologies", catalog.Len()).
		Int("skipped", catalog.Skipped()).
		Str("version", catalog.Metadata().Version).
		Msg("catalog swapped")
	return old
}

// Detect fetches req.URL and reports the technologies found on the page.
func (d *Detector) Detect(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()

	target, err := NormalizeURL(req.URL)
	if err != nil {
		d.recordFailure(req.URL, err, start)
		return nil, err
	}

	report, err := d.detect(ctx, target, req)
	if err != nil {
		d.recordFailure(req.URL, err, start)
		d.logger.Debug().Err(err).Str("url", target).Str("code", ErrorCode(err)).Msg("detection failed")
		return nil, err
	}

	elapsed := time.Since(start)
	if d.telemetry != nil {
		if werr := d.telemetry.WriteReport(report, elapsed); werr != nil {
			d.logger.Warn().Err(werr).Msg("telemetry write failed")
		}
	}
	d.logger.Info().
		Str("url", target).
		Str("final_url", report.FinalURL).
		Int("technologies", len(report.Technologies)).
		Dur("duration", elapsed).
		Msg("detection complete")
	return report, nil
}

// detect fetches the normalized target; the report keeps the caller's URL.
func (d *Detector) detect(ctx context.Context, target string, req Request) (*Report, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, d.timeout(req.Timeout))
	defer cancel()

	resp, err := d.fetcher.Fetch(fetchCtx, fetch.Request{URL: target, Cookie: req.Cookie})
	if err != nil {
		return nil, d.fetchError(fetchCtx, req.URL, err)
	}

	catalog := d.catalog.Load()
	techs, err := d.match(catalog, resp)
	if err != nil {
		return nil, err
	}

	return &Report{
		URL:          req.URL,
		FinalURL:     resp.FinalURL,
		Technologies: techs,
	}, nil
}

// match runs the CPU-bound part of the pipeline. A panic is reported as an
// UnexpectedError instead of taking the process down.
func (d *Detector) match(catalog *CompiledCatalog, resp *fetch.Response) (techs map[string]Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Msg("recovered panic during matching")
			techs = nil
			err = &UnexpectedError{Message: fmt.Sprint(r)}
		}
	}()

	doc, perr := htmldoc.Parse(resp.Body)
	if perr != nil {
		d.logger.Debug().Err(perr).Str("url", resp.FinalURL).Msg("html parse failed; continuing without DOM")
		doc = nil
	}

	signals := Extract(Evidence{URL: resp.FinalURL, Header: resp.Header, Body: resp.Body}, doc)
	return Aggregate(Evaluate(catalog, signals), signals, doc), nil
}

// fetchError tags the failure with the URL as the caller supplied it.
func (d *Detector) fetchError(ctx context.Context, rawURL string, err error) error {
	fe := &FetchError{URL: rawURL, Err: err}

	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		fe.StatusCode = statusErr.StatusCode
	}
	if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		fe.Err = errors.Join(err, ctx.Err())
	}
	return fe
}

func (d *Detector) timeout(requested time.Duration) time.Duration {
	if requested <= 0 {
		return d.defaultTimeout
	}
	if requested > d.maxTimeout {
		return d.maxTimeout
	}
	return requested
}

func (d *Detector) recordFailure(target string, err error, start time.Time) {
	if d.telemetry == nil {
		return
	}
	if werr := d.telemetry.WriteFailure(target, err, time.Since(start)); werr != nil {
		d.logger.Warn().Err(werr).Msg("telemetry write failed")
	}
}

// NormalizeURL validates raw as an absolute http(s) URL. A value without a
// scheme is treated as https.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", NewURLRequiredError()
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", NewInvalidURLError(raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", NewInvalidURLError(raw, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return "", NewInvalidURLError(raw, errors.New("missing host"))
	}
	return u.String(), nil
}
