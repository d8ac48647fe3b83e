// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vulntor/stackscan/pkg/htmldoc"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

func TestParse_JSONWrapper(t *testing.T) {
	data := []byte(`{
  "version": "2.1.0",
  "technologies": {
    "Nginx": {"headers": {"Server": "nginx(?:/([\\d.]+))?\\;version:\\1"}, "cats": [22]},
    "jQuery": {"scriptSrc": "jquery\\.js"}
  }
}`)

	doc, err := Parse(data, FormatAuto)
	require.NoError(t, err)
	require.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Technologies, 2)
	require.Equal(t, techdetect.StringList{`jquery\.js`}, doc.Technologies["jQuery"].ScriptSrc)
	require.Equal(t, `nginx(?:/([\d.]+))?\;version:\1`, doc.Technologies["Nginx"].Headers["Server"])
	require.Empty(t, doc.Rejected)
}

func TestParse_JSONFlatAndApps(t *testing.T) {
	flat, err := Parse([]byte(`{"A": {"html": ["a"]}, "B": {"url": "b"}}`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, flat.Technologies, 2)
	require.Empty(t, flat.Version)

	apps, err := Parse([]byte(`{"apps": {"A": {"html": "a"}}}`), FormatJSON)
	require.NoError(t, err)
	require.Contains(t, apps.Technologies, "A")
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
version: 1.4.0
technologies:
  WordPress:
    cats: [1, 11]
    meta:
      generator: '^WordPress(?: ([\d.]+))?\;version:\1'
    scriptSrc:
      - /wp-includes/
      - wp-embed\.min\.js
  Express:
    headers:
      X-Powered-By: ^Express$
`)

	doc, err := Parse(data, FormatYAML)
	require.NoError(t, err)
	require.Equal(t, "1.4.0", doc.Version)
	require.Len(t, doc.Technologies, 2)

	wp := doc.Technologies["WordPress"]
	require.Equal(t, []int{1, 11}, wp.Cats)
	require.Equal(t, techdetect.StringList{`^WordPress(?: ([\d.]+))?\;version:\1`}, wp.Meta["generator"])
	require.Len(t, wp.ScriptSrc, 2)
}

func TestParse_RejectsBrokenEntryOnly(t *testing.T) {
	data := []byte(`{"technologies": {"Good": {"html": "ok"}, "Bad": {"cats": "not-a-list"}}}`)

	doc, err := Parse(data, FormatJSON)
	require.NoError(t, err)
	require.Contains(t, doc.Technologies, "Good")
	require.NotContains(t, doc.Technologies, "Bad")
	require.Len(t, doc.Rejected, 1)
	require.Equal(t, "Bad", doc.Rejected[0].Name)

	yamlDoc, err := Parse([]byte("Good:\n  html: ok\nBad:\n  cats: {a: 1}\n"), FormatYAML)
	require.NoError(t, err)
	require.Contains(t, yamlDoc.Technologies, "Good")
	require.Len(t, yamlDoc.Rejected, 1)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(nil, FormatAuto)
	require.ErrorIs(t, err, ErrEmptyDocument)

	_, err = Parse([]byte("{not json"), FormatJSON)
	require.Error(t, err)

	_, err = Parse([]byte("- a\n- b\n"), FormatYAML)
	require.Error(t, err)

	_, err = Parse([]byte("{}"), Format("toml"))
	require.Error(t, err)
}

func TestEmbeddedCatalogCompilesCleanly(t *testing.T) {
	doc, err := Embedded()
	require.NoError(t, err)
	require.NotEmpty(t, doc.Version)
	require.Empty(t, doc.Rejected)
	require.Contains(t, doc.Technologies, "WordPress")

	compiled, skipped := techdetect.Compile(doc.Technologies)
	require.Equal(t, 0, skipped)
	require.Equal(t, len(doc.Technologies), compiled.Len())
}

func TestEmbeddedCatalog_DetectsFacebookPixel(t *testing.T) {
	doc, err := Embedded()
	require.NoError(t, err)
	compiled, _ := techdetect.Compile(doc.Technologies)

	body := `<html><head><script>
!function(f,b,e,v,n,t,s){t=b.createElement(e);t.async=!0;
t.src=v;s=b.getElementsByTagName(e)[0];s.parentNode.insertBefore(t,s)}
(window,document,'script','https://connect.facebook.net/en_US/fbevents.js');
fbq('init', '1234567890');
fbq('track', 'PageView');
</script>
<noscript><img height="1" width="1" src="https://www.facebook.com/tr?id=1234567890&ev=PageView&noscript=1"/></noscript>
</head><body></body></html>`
	page, err := htmldoc.Parse(body)
	require.NoError(t, err)

	signals := techdetect.Extract(techdetect.Evidence{URL: "https://shop.example/", Body: body}, page)
	pixel, ok := techdetect.Evaluate(compiled, signals)["Facebook Pixel"]
	require.True(t, ok)
	require.Equal(t, 100, pixel.Confidence)
	require.Equal(t, []int{10}, pixel.Categories)
	require.Contains(t, pixel.MatchedPatterns, `scripts:fbq\(['"](?:init|track)['"]`)
}
