// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Kind is a category of evidence a pattern is matched against.
type Kind string

// Signal kinds understood by the engine.
const (
	KindHTML    Kind = "html"
	KindText    Kind = "text"
	KindScript  Kind = "script"
	KindCSS     Kind = "css"
	KindScripts Kind = "scripts"
	KindURL     Kind = "url"
	KindMeta    Kind = "meta"
	KindHeaders Kind = "headers"
)

// listKinds are the kinds stored as flat pattern lists, in evaluation order.
var listKinds = []Kind{KindHTML, KindText, KindScript, KindCSS, KindScripts, KindURL}

const (
	// DefaultConfidence applies when a pattern carries no confidence tag.
	DefaultConfidence = 100

	tagSeparator = `\;`

	// backtrackTimeout bounds a single match of a regexp2 pattern.
	backtrackTimeout = 250 * time.Millisecond
)

// backReference finds \N tokens inside a version template.
var backReference = regexp.MustCompile(`\\(\d+)`)

type matcher interface {
	FindStringSubmatch(s string) []string
}

// Pattern is a parsed and compiled catalog pattern:
//
//	<regex>[\;confidence:<int>][\;version:<ref>]
type Pattern struct {
	Source     string // Original pattern text including tags
	Core       string // Regex body without tags
	Confidence int    // Declared confidence, DefaultConfidence when absent
	Version    string // Version reference, empty when absent

	re matcher
}

// ParsePattern splits the tag suffixes off source and compiles the core
// regex case-insensitively. Unknown tags and non-numeric confidences are
// ignored.
func ParsePattern(source string) (*Pattern, error) {
	parts := strings.Split(source, tagSeparator)
	p := &Pattern{
		Source:     source,
		Core:       parts[0],
		Confidence: DefaultConfidence,
	}

	for _, tag := range parts[1:] {
		key, value, ok := strings.Cut(tag, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "confidence":
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				p.Confidence = n
			}
		case "version":
			p.Version = value
		}
	}

	re, err := compileMatcher(p.Core)
	if err != nil {
		return nil, err
	}
	p.re = re
	return p, nil
}

// compileMatcher prefers the linear-time RE2 engine and falls back to a
// backtracking engine for constructs RE2 rejects, such as look-arounds.
func compileMatcher(expr string) (matcher, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err == nil {
		return re, nil
	}

	bt, btErr := regexp2.Compile(expr, regexp2.IgnoreCase)
	if btErr != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	bt.MatchTimeout = backtrackTimeout
	return backtrackMatcher{re: bt}, nil
}

type backtrackMatcher struct {
	re *regexp2.Regexp
}

func (m backtrackMatcher) FindStringSubmatch(s string) []string {
	match, err := m.re.FindStringMatch(s)
	if err != nil || match == nil {
		return nil
	}
	groups := match.Groups()
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.String()
	}
	return out
}

// match returns the submatches of the first match in s, or nil.
func (p *Pattern) match(s string) []string {
	if p == nil || p.re == nil {
		return nil
	}
	return p.re.FindStringSubmatch(s)
}

// extractVersion derives a version string from submatches according to the
// pattern's version reference. A template with \N tokens substitutes the
// captured groups; a bare integer selects that group verbatim. Missing
// groups, malformed references and templates whose groups are all empty
// produce "".
func (p *Pattern) extractVersion(submatches []string) string {
	ref := p.Version
	if ref == "" || len(submatches) == 0 {
		return ""
	}

	if backReference.MatchString(ref) {
		missing := false
		captured := false
		version := backReference.ReplaceAllStringFunc(ref, func(token string) string {
			idx, err := strconv.Atoi(token[1:])
			if err != nil || idx >= len(submatches) {
				missing = true
				return ""
			}
			if submatches[idx] != "" {
				captured = true
			}
			return submatches[idx]
		})
		if missing || !captured {
			return ""
		}
		return version
	}

	idx, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil || idx < 0 || idx >= len(submatches) {
		return ""
	}
	return submatches[idx]
}
