// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package htmldoc wraps an HTML parser behind the small query surface the
// detection engine needs: find elements by tag (optionally requiring an
// attribute), read attributes and read text content.
package htmldoc

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed HTML page. A nil *Document behaves like an empty page.
type Document struct {
	doc *goquery.Document
}

// Element is a single node returned by Document.Elements.
type Element struct {
	sel *goquery.Selection
}

// Parse builds a Document from a raw HTML body. The parser is lenient and
// only fails on reader errors, so malformed markup still yields a tree.
func Parse(body string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Elements returns all elements named tag. When attr is not empty only
// elements carrying that attribute (with any value) are returned.
func (d *Document) Elements(tag, attr string) []Element {
	if d == nil || d.doc == nil || tag == "" {
		return nil
	}

	selector := tag
	if attr != "" {
		selector = fmt.Sprintf("%s[%s]", tag, attr)
	}

	var out []Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, Element{sel: s})
	})
	return out
}

// HasAttr reports whether any element carries the attribute name.
func (d *Document) HasAttr(name string) bool {
	if d == nil || d.doc == nil || name == "" {
		return false
	}
	return d.doc.Find("[" + name + "]").Length() > 0
}

// HasAttrPrefix reports whether any element carries an attribute whose
// lower-cased name starts with prefix (e.g. "data-v-" or "ng-").
func (d *Document) HasAttrPrefix(prefix string) bool {
	if d == nil || d.doc == nil || prefix == "" {
		return false
	}
	prefix = strings.ToLower(prefix)

	found := false
	d.doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, node := range s.Nodes {
			for _, a := range node.Attr {
				if strings.HasPrefix(strings.ToLower(a.Key), prefix) {
					found = true
					return false
				}
			}
		}
		return true
	})
	return found
}

// Attr returns the value of the named attribute and whether it is present.
func (e Element) Attr(name string) (string, bool) {
	if e.sel == nil {
		return "", false
	}
	return e.sel.Attr(name)
}

// Text returns the combined text content of the element and its descendants.
func (e Element) Text() string {
	if e.sel == nil {
		return ""
	}
	return e.sel.Text()
}
