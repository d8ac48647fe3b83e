// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import (
	"strings"

	"github.com/vulntor/stackscan/pkg/htmldoc"
)

const (
	// CategoryLiveChat is the catalog category for live chat widgets.
	CategoryLiveChat = 52
	// CategoryJavaScriptFramework is the catalog category for JS frameworks.
	CategoryJavaScriptFramework = 12

	auxiliaryConfidence = 100
)

// vendorRule flags a vendor when any needle occurs in the page text.
type vendorRule struct {
	Name    string
	Needles []string
}

var vendorRules = []vendorRule{
	{Name: "Zendesk Chat", Needles: []string{"zopim", "zdassets", "zd-chat", "zendesk"}},
	{Name: "Intercom", Needles: []string{"intercom.io", "intercomcdn", "intercomassets", "intercomsettings"}},
	{Name: "Drift", Needles: []string{"driftt.com", "js.driftt.com"}},
	{Name: "Crisp", Needles: []string{"crisp.chat"}},
	{Name: "Tawk.to", Needles: []string{"tawk.to"}},
	{Name: "LiveChat", Needles: []string{"livechat"}},
	{Name: "Olark", Needles: []string{"olark"}},
	{Name: "HubSpot Chat", Needles: []string{"hubspot", "js.hs-scripts.com", "js.usemessages.com"}},
	{Name: "Freshchat", Needles: []string{"freshchat"}},
	{Name: "LivePerson", Needles: []string{"liveperson", "lpsnmedia.net"}},
	{Name: "Chatwoot", Needles: []string{"chatwoot"}},
}

// domRule flags a framework from attributes it leaves in server-rendered
// markup.
type domRule struct {
	Name       string
	Attrs      []string
	AttrPrefix string
}

var domRules = []domRule{
	{Name: "React", Attrs: []string{"data-reactroot", "data-reactid"}},
	{Name: "Vue.js", AttrPrefix: "data-v-"},
	{Name: "Angular", AttrPrefix: "ng-"},
}

// Aggregate merges the auxiliary vendor and DOM rules into the engine
// result. Technologies already reported by the engine are left untouched.
func Aggregate(engine map[string]Detection, s Signals, doc *htmldoc.Document) map[string]Detection {
	out := make(map[string]Detection, len(engine))
	for name, det := range engine {
		if det.Confidence > 0 {
			out[name] = det
		}
	}

	haystack := strings.ToLower(s.Body + "\n" + s.URL + "\n" + s.HeaderText())
	for _, rule := range vendorRules {
		if _, ok := out[rule.Name]; ok {
			continue
		}
		for _, needle := range rule.Needles {
			if strings.Contains(haystack, needle) {
				out[rule.Name] = auxiliaryDetection(CategoryLiveChat, "vendor:"+needle)
				break
			}
		}
	}

	for _, rule := range domRules {
		if _, ok := out[rule.Name]; ok {
			continue
		}
		if tag, ok := rule.match(doc); ok {
			out[rule.Name] = auxiliaryDetection(CategoryJavaScriptFramework, tag)
		}
	}

	return out
}

func (r domRule) match(doc *htmldoc.Document) (string, bool) {
	for _, attr := range r.Attrs {
		if doc.HasAttr(attr) {
			return "dom:" + attr, true
		}
	}
	if r.AttrPrefix != "" && doc.HasAttrPrefix(r.AttrPrefix) {
		return "dom:" + r.AttrPrefix + "*", true
	}
	return "", false
}

func auxiliaryDetection(category int, tag string) Detection {
	return Detection{
		Confidence:      auxiliaryConfidence,
		Categories:      []int{category},
		MatchedPatterns: []string{tag},
	}
}
