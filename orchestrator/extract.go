// Package orchestrator drives one chat request through the
// plan/execute/summarize loop: ask the model for a step plan, resolve each
// step through the Canvas tool catalogue, then compose a final narrative.
package orchestrator

import "strings"

// ExtractObject returns the first balanced brace-delimited object in raw.
// Models routinely wrap JSON in explanatory prose; scanning nested-brace
// depth from the first '{' tolerates both leading and trailing text. The
// second return is false when no object closes back to depth zero, which
// callers treat as "free text, not JSON".
func ExtractObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
