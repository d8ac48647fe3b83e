// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package fetch retrieves a single web page the way a desktop browser would
// and returns its decoded, UTF-8 body together with the final URL and
// response headers.
package fetch

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultUserAgent mimics a current desktop Chrome.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// DefaultMaxBodyBytes caps how much of a decoded body is kept.
	DefaultMaxBodyBytes int64 = 5 << 20
	// DefaultMaxRedirects bounds the redirect chain.
	DefaultMaxRedirects = 10
)

// ErrTooManyRedirects is returned when the redirect chain exceeds the limit.
var ErrTooManyRedirects = errors.New("too many redirects")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Request describes one page fetch.
type Request struct {
	URL    string
	Cookie string
	Header http.Header
}

// Response is a fetched and decoded page.
type Response struct {
	FinalURL   string
	StatusCode int
	Header     http.Header
	Body       string
	Truncated  bool
}

// Client fetches pages. It is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodyBytes overrides the decoded body cap.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithHTTPClient replaces the underlying http.Client. Its redirect policy is
// kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a Client with a pooled transport that follows up to
// DefaultMaxRedirects redirects.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Transport: NewTransport(),
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= DefaultMaxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		userAgent:    DefaultUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewTransport creates the shared transport used for page fetches.
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// Fetch performs a GET for req. The deadline comes from ctx. Non-2xx
// responses are returned as *StatusError.
func (c *Client) Fetch(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, err
	}

	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	if req.Cookie != "" {
		httpReq.Header.Set("Cookie", req.Cookie)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: finalURL, StatusCode: resp.StatusCode}
	}

	body, truncated, err := c.readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", finalURL, err)
	}

	return &Response{
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Truncated:  truncated,
	}, nil
}

func (c *Client) readBody(resp *http.Response) (string, bool, error) {
	decoded, err := decodeContent(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return "", false, err
	}

	utf8, err := charset.NewReader(decoded, resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown charset label; keep the bytes as they are.
		utf8 = decoded
	}

	data, err := io.ReadAll(io.LimitReader(utf8, c.maxBodyBytes+1))
	if err != nil {
		return "", false, err
	}
	truncated := int64(len(data)) > c.maxBodyBytes
	if truncated {
		data = data[:c.maxBodyBytes]
	}
	return string(data), truncated, nil
}

func decodeContent(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return r, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case "deflate":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return zr, nil
	case "br":
		return brotli.NewReader(r), nil
	default:
		return r, nil
	}
}
