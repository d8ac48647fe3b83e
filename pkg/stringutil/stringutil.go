// Package stringutil holds small string helpers for terminal output.
package stringutil

import "strings"

// Ellipsis flattens s to a single line and shortens it to at most maxLength
// runes, ending in "..." when truncated. Runs of whitespace, including line
// breaks, collapse to one space. With maxLength of 3 or less the text is cut
// without an ellipsis.
func Ellipsis(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
