package llm

import (
	"fmt"
	"strings"
)

// CleanJSON strips markdown code fences the model sometimes wraps around
// its reply.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ExtractJSONObject returns the outermost {...} in a possibly chatty model
// reply.
func ExtractJSONObject(text string) (string, error) {
	return extractDelimited(CleanJSON(text), '{', '}')
}

// ExtractJSONArray returns the outermost [...] in a possibly chatty model
// reply.
func ExtractJSONArray(text string) (string, error) {
	return extractDelimited(CleanJSON(text), '[', ']')
}

func extractDelimited(text string, opening, closing byte) (string, error) {
	start := strings.IndexByte(text, opening)
	end := strings.LastIndexByte(text, closing)
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON %c...%c found in response: %s", opening, closing, truncate(text, 200))
	}
	return text[start : end+1], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
