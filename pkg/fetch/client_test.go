// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Powered-By", "PHP/8.2.1")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	c := NewClient()
	resp, err := c.Fetch(context.Background(), Request{URL: srv.URL, Cookie: "session=abc"})
	require.NoError(t, err)
	require.Equal(t, DefaultUserAgent, gotUA)
	require.Equal(t, "session=abc", gotCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "PHP/8.2.1", resp.Header.Get("X-Powered-By"))
	require.Contains(t, resp.Body, "hello")
	require.False(t, resp.Truncated)
}

func TestClient_FetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("moved"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := NewClient().Fetch(context.Background(), Request{URL: srv.URL + "/old"})
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/new", resp.FinalURL)
	require.Equal(t, "moved", resp.Body)
}

func TestClient_FetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient().Fetch(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestClient_FetchDecodesContentEncodings(t *testing.T) {
	page := "<html><head><title>compressed</title></head></html>"

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte(page))
	require.NoError(t, zw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write([]byte(page))
	require.NoError(t, bw.Close())

	tests := []struct {
		name     string
		encoding string
		payload  []byte
	}{
		{name: "gzip", encoding: "gzip", payload: gz.Bytes()},
		{name: "brotli", encoding: "br", payload: br.Bytes()},
		{name: "identity", encoding: "", payload: []byte(page)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write(tt.payload)
			}))
			defer srv.Close()

			resp, err := NewClient().Fetch(context.Background(), Request{URL: srv.URL})
			require.NoError(t, err)
			require.Equal(t, page, resp.Body)
		})
	}
}

func TestClient_FetchConvertsCharset(t *testing.T) {
	// "café" in ISO-8859-1
	latin1 := []byte{'c', 'a', 'f', 0xe9}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write(latin1)
	}))
	defer srv.Close()

	resp, err := NewClient().Fetch(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, "café", resp.Body)
}

func TestClient_FetchTruncatesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(bytes.Repeat([]byte("a"), 64))
	}))
	defer srv.Close()

	resp, err := NewClient(WithMaxBodyBytes(16)).Fetch(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	require.Len(t, resp.Body, 16)
	require.True(t, resp.Truncated)
}

func TestClient_FetchHonorsContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient().Fetch(ctx, Request{URL: srv.URL})
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_WithUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	_, err := NewClient(WithUserAgent("stackscan-test")).Fetch(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, "stackscan-test", gotUA)
}
