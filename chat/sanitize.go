package chat

import (
	"regexp"
	"strings"
)

// Clients may attach machine-only hints to a user message (pre-resolved
// course ids, the active course name) between these markers. The hints are
// consumed while building the current turn's prompts and must never reach
// the model as history nor the user as display text.
const (
	ContextOpen  = "[context]"
	ContextClose = "[/context]"
)

var contextBlock = regexp.MustCompile(`(?s)\[context\].*?\[/context\]`)

// Sanitize removes every [context]...[/context] block from text. The removal
// is non-greedy and applies to all occurrences, repeated to a fixpoint:
// stripping one pair can splice the surrounding fragments into a new pair
// (overlapping markers), which a single pass would leave behind. Sanitize is
// idempotent and is the identity function for text without marker pairs.
func Sanitize(text string) string {
	for strings.Contains(text, ContextOpen) {
		next := contextBlock.ReplaceAllString(text, "")
		if next == text {
			break
		}
		text = next
	}
	return text
}

// SanitizeMessages returns a copy of messages with every content field
// sanitized. The input slice is not modified.
func SanitizeMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = Message{Role: m.Role, Content: Sanitize(m.Content)}
	}
	return out
}
