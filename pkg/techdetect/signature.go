// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package techdetect

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Catalog maps technology names to their raw signature definitions.
type Catalog map[string]RawSignature

// RawSignature is one technology entry as it appears in the fingerprint
// catalog. Pattern fields accept either a single string or a list.
type RawSignature struct {
	HTML      StringList            `json:"html,omitempty" yaml:"html,omitempty"`
	ScriptSrc StringList            `json:"scriptSrc,omitempty" yaml:"scriptSrc,omitempty"`
	URL       StringList            `json:"url,omitempty" yaml:"url,omitempty"`
	Text      StringList            `json:"text,omitempty" yaml:"text,omitempty"`
	CSS       StringList            `json:"css,omitempty" yaml:"css,omitempty"`
	Scripts   StringList            `json:"scripts,omitempty" yaml:"scripts,omitempty"`
	Meta      map[string]StringList `json:"meta,omitempty" yaml:"meta,omitempty"`
	Headers   map[string]string     `json:"headers,omitempty" yaml:"headers,omitempty"`

	Cats        []int  `json:"cats,omitempty" yaml:"cats,omitempty"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Website     string `json:"website,omitempty" yaml:"website,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// patterns returns the raw pattern list for one of the flat signal kinds.
func (r RawSignature) patterns(kind Kind) StringList {
	switch kind {
	case KindHTML:
		return r.HTML
	case KindText:
		return r.Text
	case KindScript:
		return r.ScriptSrc
	case KindCSS:
		return r.CSS
	case KindScripts:
		return r.Scripts
	case KindURL:
		return r.URL
	default:
		return nil
	}
}

// StringList decodes from either a JSON/YAML string or a list of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*s = StringList{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*s = list
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*s = nil
			return nil
		}
		*s = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", value.Line)
	}
}
