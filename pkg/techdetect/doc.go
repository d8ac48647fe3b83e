// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package techdetect identifies the technologies behind a web page by
// matching a catalog of signatures against evidence gathered from a single
// fetched response.
//
// The package is organised as a pipeline:
//   - Compile turns a raw Catalog into an immutable CompiledCatalog. Patterns
//     that fail to compile are dropped and counted, never fatal.
//   - Extract derives the Signals (lower-cased body, script sources, inline
//     script and style text, meta tags, headers, final URL) from a response.
//   - Evaluate runs every compiled signature against the Signals and keeps the
//     maximum confidence per technology, extracting versions on the way.
//   - Aggregate adds auxiliary rules for vendors that are not in the catalog.
//
// Detector ties the stages to a Fetcher and holds the compiled catalog behind
// an atomic pointer so it can be replaced while requests are in flight.
package techdetect
