// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import (
	"net/http"
	"sort"
	"strings"

	"github.com/vulntor/stackscan/pkg/htmldoc"
)

// Evidence is the raw material gathered from one fetched page.
type Evidence struct {
	URL    string // final URL after redirects
	Header http.Header
	Body   string
}

// MetaTag is one <meta> element reduced to its identifying key and content.
type MetaTag struct {
	Key     string // lower-cased name, property or http-equiv
	Content string
}

// Signals are the derived views patterns are matched against.
type Signals struct {
	Body      string            // lower-cased page body
	ScriptSrc string            // space-joined script src values
	CSS       string            // space-joined inline style text
	Scripts   string            // space-joined inline script text
	Meta      []MetaTag         // document order
	Headers   map[string]string // lower-cased name to value
	URL       string
}

// Extract derives the match views from the evidence and its parsed DOM. A nil
// document yields empty DOM-derived views.
func Extract(ev Evidence, doc *htmldoc.Document) Signals {
	s := Signals{
		Body:    strings.ToLower(ev.Body),
		URL:     ev.URL,
		Headers: make(map[string]string, len(ev.Header)),
	}

	for name, values := range ev.Header {
		s.Headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}

	var srcs []string
	for _, el := range doc.Elements("script", "src") {
		if src, ok := el.Attr("src"); ok {
			srcs = append(srcs, src)
		}
	}
	s.ScriptSrc = strings.Join(srcs, " ")

	var inline []string
	for _, el := range doc.Elements("script", "") {
		if _, ok := el.Attr("src"); ok {
			continue
		}
		inline = append(inline, el.Text())
	}
	s.Scripts = strings.Join(inline, " ")

	var styles []string
	for _, el := range doc.Elements("style", "") {
		styles = append(styles, el.Text())
	}
	s.CSS = strings.Join(styles, " ")

	for _, el := range doc.Elements("meta", "content") {
		content, _ := el.Attr("content")
		for _, attr := range []string{"name", "property", "http-equiv"} {
			if key, ok := el.Attr(attr); ok && key != "" {
				s.Meta = append(s.Meta, MetaTag{Key: strings.ToLower(key), Content: content})
				break
			}
		}
	}

	return s
}

// HeaderText renders the header set as "name: value" lines in name order.
func (s Signals) HeaderText() string {
	names := make([]string, 0, len(s.Headers))
	for name := range s.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(s.Headers[name])
		b.WriteByte('\n')
	}
	return b.String()
}
