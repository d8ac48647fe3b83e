// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompile_NormalizesKinds(t *testing.T) {
	raw := Catalog{
		"jQuery": {
			ScriptSrc: StringList{`jquery[.-]([\d.]+)\.js\;version:\1`, `jquery\.min\.js`},
			HTML:      StringList{`<script[^>]+jquery`},
			Cats:      []int{59},
			Website:   "https://jquery.com",
		},
		"Nginx": {
			Headers: map[string]string{"Server": `nginx(?:/([\d.]+))?\;version:\1`},
		},
		"WordPress": {
			Meta: map[string]StringList{"generator": {`^WordPress(?: ([\d.]+))?\;version:\1`}},
		},
	}

	c, skipped := Compile(raw)
	require.Equal(t, 0, skipped)
	require.Equal(t, 3, c.Len())
	require.Equal(t, []string{"Nginx", "WordPress", "jQuery"}, c.Names())

	jq, ok := c.Signature("jQuery")
	require.True(t, ok)
	require.Len(t, jq.Patterns[KindScript], 2)
	require.Len(t, jq.Patterns[KindHTML], 1)
	require.Equal(t, []int{59}, jq.Categories)
	require.Equal(t, "https://jquery.com", jq.Website)

	ng, _ := c.Signature("Nginx")
	require.Len(t, ng.Headers, 1)
	require.Equal(t, "Server", ng.Headers[0].Field)
	require.Equal(t, "server", ng.Headers[0].key)

	wp, _ := c.Signature("WordPress")
	require.Len(t, wp.Meta, 1)
	require.Equal(t, `\1`, wp.Meta[0].Patterns[0].Version)
}

func TestCompile_SkipsBrokenPatternOnly(t *testing.T) {
	base := Catalog{
		"Alpha": {HTML: StringList{`alpha-good`}},
		"Beta":  {HTML: StringList{`beta`}},
	}
	broken := Catalog{
		"Alpha": {HTML: StringList{`alpha-good`, `(alpha-broken`}},
		"Beta":  {HTML: StringList{`beta`}},
	}

	_, baseSkipped := Compile(base)

	var reported []PatternError
	c, skipped := Compile(broken, WithPatternErrorHandler(func(pe PatternError) {
		reported = append(reported, pe)
	}))

	require.Equal(t, baseSkipped+1, skipped)
	require.Equal(t, skipped, c.Skipped())
	require.Len(t, reported, 1)
	require.Equal(t, "Alpha", reported[0].Technology)
	require.Equal(t, KindHTML, reported[0].Kind)
	require.Equal(t, `(alpha-broken`, reported[0].Source)
	require.Error(t, reported[0].Unwrap())

	alpha, ok := c.Signature("Alpha")
	require.True(t, ok)
	require.Len(t, alpha.Patterns[KindHTML], 1)

	got := Evaluate(c, Signals{Body: "alpha-good and beta"})
	require.Contains(t, got, "Alpha")
	require.Contains(t, got, "Beta")
}

func TestCompile_BrokenMetaAndHeaderPatterns(t *testing.T) {
	raw := Catalog{
		"Gamma": {
			Meta:    map[string]StringList{"generator": {`gamma`, `(bad`}},
			Headers: map[string]string{"X-Bad": `[z-a]`},
		},
	}

	c, skipped := Compile(raw)
	require.Equal(t, 2, skipped)

	sig, _ := c.Signature("Gamma")
	require.Len(t, sig.Meta, 1)
	require.Len(t, sig.Meta[0].Patterns, 1)
	require.Empty(t, sig.Headers)
}

func TestCompile_Deterministic(t *testing.T) {
	raw := Catalog{
		"B": {HTML: StringList{`b`, `(x`}},
		"A": {Meta: map[string]StringList{"z": {`1`}, "a": {`2`}}},
		"C": {Headers: map[string]string{"X-Two": `2`, "X-One": `1`}},
	}

	c1, s1 := Compile(raw)
	c2, s2 := Compile(raw)
	require.Equal(t, s1, s2)
	require.Equal(t, c1.Names(), c2.Names())

	a, _ := c1.Signature("A")
	require.Equal(t, "a", a.Meta[0].Field)
	require.Equal(t, "z", a.Meta[1].Field)

	cc, _ := c1.Signature("C")
	require.Equal(t, "X-One", cc.Headers[0].Field)
}

func TestCompile_EmptyAndMetadata(t *testing.T) {
	loaded := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c, skipped := Compile(nil, WithMetadata(Metadata{Version: "1.2.0", Source: "embedded", LoadedAt: loaded}))
	require.Equal(t, 0, skipped)
	require.Equal(t, 0, c.Len())
	require.Equal(t, "1.2.0", c.Metadata().Version)
	require.Equal(t, loaded, c.Metadata().LoadedAt)

	var nilCatalog *CompiledCatalog
	require.Equal(t, 0, nilCatalog.Len())
	require.Nil(t, nilCatalog.Names())
}
