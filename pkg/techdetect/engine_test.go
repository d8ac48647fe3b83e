// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func compileCatalog(t *testing.T, raw Catalog) *CompiledCatalog {
	t.Helper()
	c, skipped := Compile(raw)
	require.Equal(t, 0, skipped)
	return c
}

func TestEvaluate_SignalKinds(t *testing.T) {
	c := compileCatalog(t, Catalog{
		"HTMLTech":    {HTML: StringList{`<div id="app">`}},
		"TextTech":    {Text: StringList{`hello world`}},
		"ScriptTech":  {ScriptSrc: StringList{`cdn\.example\.com/lib\.js`}},
		"CSSTech":     {CSS: StringList{`\.btn-primary`}},
		"ScriptsTech": {Scripts: StringList{`dataLayer`}},
		"URLTech":     {URL: StringList{`^https://shop\.`}},
		"MetaTech":    {Meta: map[string]StringList{"Generator": {`acme`}}},
		"HeaderTech":  {Headers: map[string]string{"X-Powered-By": `express`}},
		"Absent":      {HTML: StringList{`nothing-here`}},
	})

	s := Signals{
		Body:      `<div id="app">hello world</div>`,
		ScriptSrc: "https://cdn.example.com/lib.js",
		CSS:       ".btn-primary{}",
		Scripts:   "window.dataLayer=[]",
		URL:       "https://shop.example.com/",
		Meta:      []MetaTag{{Key: "generator", Content: "ACME CMS"}},
		Headers:   map[string]string{"x-powered-by": "Express"},
	}

	got := Evaluate(c, s)
	for _, name := range []string{"HTMLTech", "TextTech", "ScriptTech", "CSSTech", "ScriptsTech", "URLTech", "MetaTech", "HeaderTech"} {
		require.Contains(t, got, name)
		require.Equal(t, 100, got[name].Confidence)
	}
	require.NotContains(t, got, "Absent")

	require.Equal(t, []string{"meta:Generator=acme"}, got["MetaTech"].MatchedPatterns)
	require.Equal(t, []string{"headers:X-Powered-By=express"}, got["HeaderTech"].MatchedPatterns)
	require.Equal(t, []string{`script:cdn\.example\.com/lib\.js`}, got["ScriptTech"].MatchedPatterns)
}

func TestEvaluate_ConfidenceTag(t *testing.T) {
	c := compileCatalog(t, Catalog{
		"Tech": {HTML: StringList{`marker\;confidence:42`}},
	})
	got := Evaluate(c, Signals{Body: "marker"})
	require.Equal(t, 42, got["Tech"].Confidence)
}

func TestEvaluate_ConfidenceRunningMax(t *testing.T) {
	c := compileCatalog(t, Catalog{
		"Tech": {
			HTML:      StringList{`one\;confidence:30`, `two\;confidence:60`},
			ScriptSrc: StringList{`three\;confidence:10`},
		},
	})
	got := Evaluate(c, Signals{Body: "one two", ScriptSrc: "three"})
	require.Equal(t, 60, got["Tech"].Confidence)
	require.Len(t, got["Tech"].MatchedPatterns, 3)
}

func TestEvaluate_ZeroConfidenceOmitted(t *testing.T) {
	c := compileCatalog(t, Catalog{
		"Zero":     {HTML: StringList{`marker\;confidence:0`}},
		"Negative": {HTML: StringList{`marker\;confidence:-5`}},
		"Positive": {HTML: StringList{`marker\;confidence:1`}},
	})
	got := Evaluate(c, Signals{Body: "marker"})
	require.NotContains(t, got, "Zero")
	require.NotContains(t, got, "Negative")
	require.Contains(t, got, "Positive")
	for _, det := range got {
		require.Greater(t, det.Confidence, 0)
	}
}

func TestEvaluate_VersionGroup(t *testing.T) {
	c := compileCatalog(t, Catalog{
		"jQuery": {ScriptSrc: StringList{`jquery-([\d.]+)\.min\.js\;version:1`}},
	})
	got := Evaluate(c, Signals{ScriptSrc: "/static/jquery-3.7.1.min.js"})
	require.Equal(t, "3.7.1", got["jQuery"].Version)
}

func TestEvaluate_LastNonEmptyVersionWins(t *testing.T) {
	c := compileCatalog(t, Catalog{
		"Tech": {
			HTML:      StringList{`tech-v([\d.]+)\;version:\1`},
			ScriptSrc: StringList{`tech\.js\?v=([\d.]+)\;version:\1`, `tech(?:-([\d.]+))?\.css\;version:\1`},
		},
	})

	got := Evaluate(c, Signals{Body: "tech-v1.0", ScriptSrc: "tech.js?v=2.0 tech.css"})
	// The later script pattern matched without a version and must not clear it.
	require.Equal(t, "2.0", got["Tech"].Version)
}

func TestEvaluate_MetaDocumentOrder(t *testing.T) {
	c := compileCatalog(t, Catalog{
		"Tech": {Meta: map[string]StringList{"generator": {`tech ([\d.]+)\;version:\1`}}},
	})

	got := Evaluate(c, Signals{Meta: []MetaTag{
		{Key: "generator", Content: "Tech 1.0"},
		{Key: "description", Content: "Tech 9.9"},
		{Key: "generator", Content: "Tech 2.0"},
	}})
	require.Equal(t, "2.0", got["Tech"].Version)
	require.Len(t, got["Tech"].MatchedPatterns, 2)
}

func TestEvaluate_HeaderMissing(t *testing.T) {
	c := compileCatalog(t, Catalog{
		"Tech": {Headers: map[string]string{"X-Generator": `.*`}},
	})
	require.Empty(t, Evaluate(c, Signals{Headers: map[string]string{"server": "x"}}))
	require.Contains(t, Evaluate(c, Signals{Headers: map[string]string{"x-generator": ""}}), "Tech")
}

func TestEvaluate_CarriesSignatureMetadata(t *testing.T) {
	c := compileCatalog(t, Catalog{
		"Tech": {
			HTML:        StringList{`tech`},
			Cats:        []int{1, 6},
			Icon:        "Tech.svg",
			Website:     "https://tech.example",
			Description: "An example technology.",
		},
	})
	det := Evaluate(c, Signals{Body: "tech"})["Tech"]
	require.Equal(t, []int{1, 6}, det.Categories)
	require.Equal(t, "Tech.svg", det.Icon)
	require.Equal(t, "https://tech.example", det.Website)
	require.Equal(t, "An example technology.", det.Description)
}

func TestEvaluate_ResultsDoNotAliasCatalog(t *testing.T) {
	c := compileCatalog(t, Catalog{"Tech": {HTML: StringList{`tech`}, Cats: []int{1, 2}}})

	first := Evaluate(c, Signals{Body: "tech"})
	first["Tech"].Categories[0] = 999

	second := Evaluate(c, Signals{Body: "tech"})
	require.Equal(t, []int{1, 2}, second["Tech"].Categories)
	sig, ok := c.Signature("Tech")
	require.True(t, ok)
	require.Equal(t, []int{1, 2}, sig.Categories)
}

func TestEvaluate_Idempotent(t *testing.T) {
	c := compileCatalog(t, Catalog{
		"A": {HTML: StringList{`alpha ([\d.]+)\;version:\1`}},
		"B": {Headers: map[string]string{"Server": `beta`}},
		"C": {Meta: map[string]StringList{"generator": {`gamma`}}},
	})
	s := Signals{
		Body:    "alpha 1.2",
		Headers: map[string]string{"server": "beta"},
		Meta:    []MetaTag{{Key: "generator", Content: "gamma"}},
	}

	first, err := json.Marshal(Evaluate(c, s))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(Evaluate(c, s))
		require.NoError(t, err)
		require.JSONEq(t, string(first), string(again))
		require.Equal(t, first, again)
	}
}

func TestEvaluate_EmptyCatalog(t *testing.T) {
	c, skipped := Compile(Catalog{})
	require.Equal(t, 0, skipped)
	require.Empty(t, Evaluate(c, Signals{Body: "anything"}))
	require.Empty(t, Evaluate(nil, Signals{Body: "anything"}))
}
