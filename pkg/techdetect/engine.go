// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import "slices"

// Detection is the result for one technology found on a page.
type Detection struct {
	Version         string   `json:"version,omitempty"`
	Confidence      int      `json:"confidence"`
	Categories      []int    `json:"categories,omitempty"`
	Icon            string   `json:"icon,omitempty"`
	Website         string   `json:"website,omitempty"`
	Description     string   `json:"description,omitempty"`
	MatchedPatterns []string `json:"matched_patterns,omitempty"`
}

// accumulator folds pattern hits for a single technology.
type accumulator struct {
	confidence int
	version    string
	matched    []string
}

func (a *accumulator) hit(tag string, p *Pattern, submatches []string) {
	if p.Confidence > a.confidence {
		a.confidence = p.Confidence
	}
	if v := p.extractVersion(submatches); v != "" {
		a.version = v
	}
	a.matched = append(a.matched, tag)
}

func (a *accumulator) try(kind Kind, p *Pattern, target string) {
	if sm := p.match(target); sm != nil {
		a.hit(string(kind)+":"+p.Source, p, sm)
	}
}

func (a *accumulator) tryField(kind Kind, field string, p *Pattern, target string) {
	if sm := p.match(target); sm != nil {
		a.hit(string(kind)+":"+field+"="+p.Source, p, sm)
	}
}

// Evaluate matches every compiled signature against the signals. Only
// technologies whose combined confidence is positive are returned.
func Evaluate(catalog *CompiledCatalog, s Signals) map[string]Detection {
	out := make(map[string]Detection)
	if catalog == nil {
		return out
	}

	for _, sig := range catalog.signatures {
		acc := evaluateSignature(sig, s)
		if acc.confidence <= 0 {
			continue
		}
		out[sig.Name] = Detection{
			Version:         acc.version,
			Confidence:      acc.confidence,
			Categories:      slices.Clone(sig.Categories),
			Icon:            sig.Icon,
			Website:         sig.Website,
			Description:     sig.Description,
			MatchedPatterns: acc.matched,
		}
	}
	return out
}

func evaluateSignature(sig *CompiledSignature, s Signals) accumulator {
	var acc accumulator

	for _, kind := range listKinds {
		target := s.target(kind)
		for _, p := range sig.Patterns[kind] {
			acc.try(kind, p, target)
		}
	}

	for _, tag := range s.Meta {
		for _, fp := range sig.Meta {
			if fp.key != tag.Key {
				continue
			}
			for _, p := range fp.Patterns {
				acc.tryField(KindMeta, fp.Field, p, tag.Content)
			}
		}
	}

	for _, fp := range sig.Headers {
		value, ok := s.Headers[fp.key]
		if !ok {
			continue
		}
		for _, p := range fp.Patterns {
			acc.tryField(KindHeaders, fp.Field, p, value)
		}
	}

	return acc
}

func (s Signals) target(kind Kind) string {
	switch kind {
	case KindHTML, KindText:
		return s.Body
	case KindScript:
		return s.ScriptSrc
	case KindCSS:
		return s.CSS
	case KindScripts:
		return s.Scripts
	case KindURL:
		return s.URL
	default:
		return ""
	}
}

