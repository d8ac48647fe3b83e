// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package htmldoc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html>
<head>
  <meta name="generator" content="WordPress 6.4.2">
  <script src="/wp-includes/js/jquery/jquery.min.js"></script>
  <script>window.dataLayer = [];</script>
  <style>.btn { color: red; }</style>
</head>
<body>
  <div id="app" data-v-7ba5bd90 ng-app="demo">hello</div>
</body>
</html>`

func TestElements_FilterByAttribute(t *testing.T) {
	doc, err := Parse(samplePage)
	require.NoError(t, err)

	withSrc := doc.Elements("script", "src")
	require.Len(t, withSrc, 1)
	src, ok := withSrc[0].Attr("src")
	require.True(t, ok)
	require.Equal(t, "/wp-includes/js/jquery/jquery.min.js", src)

	all := doc.Elements("script", "")
	require.Len(t, all, 2)
	require.Contains(t, all[1].Text(), "dataLayer")
}

func TestElements_StyleText(t *testing.T) {
	doc, err := Parse(samplePage)
	require.NoError(t, err)

	styles := doc.Elements("style", "")
	require.Len(t, styles, 1)
	require.Contains(t, styles[0].Text(), ".btn")
}

func TestHasAttrAndPrefix(t *testing.T) {
	doc, err := Parse(samplePage)
	require.NoError(t, err)

	require.True(t, doc.HasAttr("ng-app"))
	require.False(t, doc.HasAttr("data-reactroot"))
	require.True(t, doc.HasAttrPrefix("data-v-"))
	require.True(t, doc.HasAttrPrefix("NG-"))
	require.False(t, doc.HasAttrPrefix("x-data"))
}

func TestNilDocumentIsEmpty(t *testing.T) {
	var doc *Document

	require.Nil(t, doc.Elements("script", "src"))
	require.False(t, doc.HasAttr("id"))
	require.False(t, doc.HasAttrPrefix("data-"))

	var el Element
	_, ok := el.Attr("src")
	require.False(t, ok)
	require.Empty(t, el.Text())
}

func TestParse_EmptyBody(t *testing.T) {
	doc, err := Parse("")
	require.NoError(t, err)
	require.Empty(t, doc.Elements("meta", ""))
}
