// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package catalog loads, validates, caches and refreshes the technology
// signature catalog consumed by the detection engine.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vulntor/stackscan/pkg/techdetect"
)

// Format is the serialization of a catalog document.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrEmptyDocument is returned for a document with no content.
var ErrEmptyDocument = errors.New("catalog document is empty")

// Document is a parsed catalog file.
type Document struct {
	Version      string
	Technologies techdetect.Catalog
	Rejected     []RejectedEntry
}

// RejectedEntry is a technology whose definition could not be decoded. The
// rest of the document is still usable.
type RejectedEntry struct {
	Name string
	Err  error
}

func (r RejectedEntry) Error() string {
	return fmt.Sprintf("%s: %v", r.Name, r.Err)
}

// Parse decodes a catalog document. Three layouts are accepted: a flat
// name-to-signature map, or a wrapper object with a "technologies" (or
// "apps") map and an optional semver "version".
func Parse(data []byte, format Format) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	if format == FormatAuto {
		format = sniffFormat(data)
	}

	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
}

func sniffFormat(data []byte) Format {
	if len(data) > 0 && data[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

var wrapperKeys = []string{"technologies", "apps"}

func parseJSON(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode json catalog: %w", err)
	}

	doc := &Document{Technologies: techdetect.Catalog{}}
	entries := top
	for _, key := range wrapperKeys {
		raw, ok := top[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decode json catalog %q: %w", key, err)
		}
		if v, ok := top["version"]; ok {
			if err := json.Unmarshal(v, &doc.Version); err != nil {
				return nil, fmt.Errorf("decode json catalog version: %w", err)
			}
		}
		break
	}

	for _, name := range sortedNames(entries) {
		var sig techdetect.RawSignature
		if err := json.Unmarshal(entries[name], &sig); err != nil {
			doc.Rejected = append(doc.Rejected, RejectedEntry{Name: name, Err: err})
			continue
		}
		doc.Technologies[name] = sig
	}
	return doc, nil
}

func parseYAML(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode yaml catalog: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode yaml catalog: line %d: expected a mapping", top.Line)
	}

	doc := &Document{Technologies: techdetect.Catalog{}}
	entries := top
	if wrapped := mappingValue(top, wrapperKeys...); wrapped != nil {
		if wrapped.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("decode yaml catalog: line %d: expected technologies mapping", wrapped.Line)
		}
		entries = wrapped
		if v := mappingValue(top, "version"); v != nil {
			doc.Version = v.Value
		}
	}

	for i := 0; i+1 < len(entries.Content); i += 2 {
		name := entries.Content[i].Value
		var sig techdetect.RawSignature
		if err := entries.Content[i+1].Decode(&sig); err != nil {
			doc.Rejected = append(doc.Rejected, RejectedEntry{Name: name, Err: err})
			continue
		}
		doc.Technologies[name] = sig
	}
	return doc, nil
}

func mappingValue(node *yaml.Node, keys ...string) *yaml.Node {
	for _, key := range keys {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				return node.Content[i+1]
			}
		}
	}
	return nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
