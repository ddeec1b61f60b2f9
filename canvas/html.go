package canvas

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTag    = regexp.MustCompile(`<[^>]+>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// StripHTML removes markup from Canvas rich-text fields (descriptions,
// announcements, syllabi) and collapses the leftover whitespace so the text
// reads as plain prose.
func StripHTML(text string) string {
	if text == "" {
		return ""
	}
	text = html.UnescapeString(text)
	text = htmlTag.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
