// Package sanitize provides text sanitization utilities for user-supplied
// chat input before it reaches prompt assembly or storage.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	// controlRegex matches control characters except newline and tab
	controlRegex = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
)

// StripHTML removes all HTML tags from a string, making it safe for text-only
// handling. Entities are decoded and the result re-stripped to catch encoded tags.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Message sanitizes a chat message: strips HTML, drops control characters,
// and caps length so a single message cannot blow up the prompt window.
func Message(s string, maxLen int) string {
	result := StripHTML(s)
	result = controlRegex.ReplaceAllString(result, "")
	if maxLen > 0 && len(result) > maxLen {
		result = result[:maxLen]
	}
	return strings.TrimSpace(result)
}

// Text sanitizes a string for safe text storage by stripping HTML.
func Text(s string) string {
	return StripHTML(s)
}
