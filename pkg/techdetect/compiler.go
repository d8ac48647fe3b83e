// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import (
	"sort"
	"strings"
	"time"
)

// FieldPatterns holds the patterns declared for one meta or header name.
type FieldPatterns struct {
	Field    string
	Patterns []*Pattern

	key string // lower-cased Field
}

// CompiledSignature is the match-ready form of a RawSignature.
type CompiledSignature struct {
	Name        string
	Patterns    map[Kind][]*Pattern
	Meta        []FieldPatterns // sorted by Field
	Headers     []FieldPatterns // sorted by Field
	Categories  []int
	Icon        string
	Website     string
	Description string
}

// Metadata describes where a compiled catalog came from.
type Metadata struct {
	Version  string    `json:"version,omitempty"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// CompiledCatalog is an immutable set of compiled signatures. It is safe for
// concurrent use by any number of readers.
type CompiledCatalog struct {
	signatures []*CompiledSignature // sorted by Name
	byName     map[string]*CompiledSignature
	skipped    int
	meta       Metadata
}

// Len returns the number of technologies in the catalog.
func (c *CompiledCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.signatures)
}

// Skipped returns how many patterns failed to compile.
func (c *CompiledCatalog) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}

// Metadata returns the catalog's provenance.
func (c *CompiledCatalog) Metadata() Metadata {
	if c == nil {
		return Metadata{}
	}
	return c.meta
}

// Signature looks up a compiled signature by technology name.
func (c *CompiledCatalog) Signature(name string) (*CompiledSignature, bool) {
	if c == nil {
		return nil, false
	}
	sig, ok := c.byName[name]
	return sig, ok
}

// Names returns the technology names in evaluation order.
func (c *CompiledCatalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.signatures))
	for i, sig := range c.signatures {
		names[i] = sig.Name
	}
	return names
}

// CompileOption configures Compile.
type CompileOption func(*compileOptions)

type compileOptions struct {
	onError func(PatternError)
	meta    Metadata
}

// WithPatternErrorHandler registers a callback invoked for every pattern
// that fails to compile.
func WithPatternErrorHandler(fn func(PatternError)) CompileOption {
	return func(o *compileOptions) {
		o.onError = fn
	}
}

// WithMetadata attaches provenance to the compiled catalog.
func WithMetadata(meta Metadata) CompileOption {
	return func(o *compileOptions) {
		o.meta = meta
	}
}

// Compile turns a raw catalog into its compiled form and reports how many
// patterns were skipped. A broken pattern never affects its siblings.
func Compile(raw Catalog, opts ...CompileOption) (*CompiledCatalog, int) {
	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	c := &CompiledCatalog{
		signatures: make([]*CompiledSignature, 0, len(names)),
		byName:     make(map[string]*CompiledSignature, len(names)),
		meta:       o.meta,
	}

	report := func(pe PatternError) {
		c.skipped++
		if o.onError != nil {
			o.onError(pe)
		}
	}

	for _, name := range names {
		sig := compileSignature(name, raw[name], report)
		c.signatures = append(c.signatures, sig)
		c.byName[name] = sig
	}

	return c, c.skipped
}

func compileSignature(name string, raw RawSignature, report func(PatternError)) *CompiledSignature {
	sig := &CompiledSignature{
		Name:        name,
		Patterns:    make(map[Kind][]*Pattern),
		Categories:  append([]int(nil), raw.Cats...),
		Icon:        raw.Icon,
		Website:     raw.Website,
		Description: raw.Description,
	}

	for _, kind := range listKinds {
		if compiled := compileList(name, kind, "", raw.patterns(kind), report); len(compiled) > 0 {
			sig.Patterns[kind] = compiled
		}
	}

	for _, field := range sortedKeys(raw.Meta) {
		compiled := compileList(name, KindMeta, field, raw.Meta[field], report)
		if len(compiled) > 0 {
			sig.Meta = append(sig.Meta, FieldPatterns{Field: field, key: strings.ToLower(field), Patterns: compiled})
		}
	}

	for _, field := range sortedKeys(raw.Headers) {
		compiled := compileList(name, KindHeaders, field, StringList{raw.Headers[field]}, report)
		if len(compiled) > 0 {
			sig.Headers = append(sig.Headers, FieldPatterns{Field: field, key: strings.ToLower(field), Patterns: compiled})
		}
	}

	return sig
}

func compileList(tech string, kind Kind, field string, sources StringList, report func(PatternError)) []*Pattern {
	if len(sources) == 0 {
		return nil
	}
	out := make([]*Pattern, 0, len(sources))
	for _, src := range sources {
		p, err := ParsePattern(src)
		if err != nil {
			report(PatternError{Technology: tech, Kind: kind, Field: field, Source: src, Err: err})
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
