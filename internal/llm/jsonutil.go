package llm

import "strings"

// ExtractJSON pulls JSON out of model output, handling explanatory text
// before/after the JSON and markdown code fences.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	// Try to extract JSON from markdown code fences first.
	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+7:]
		if endIdx := strings.Index(s, "```"); endIdx != -1 {
			s = s[:endIdx]
		}
		return strings.TrimSpace(s)
	}
	if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
		// Skip optional language identifier on same line.
		if nlIdx := strings.Index(s, "\n"); nlIdx != -1 && nlIdx < 20 {
			s = s[nlIdx+1:]
		}
		if endIdx := strings.Index(s, "```"); endIdx != -1 {
			s = s[:endIdx]
		}
		return strings.TrimSpace(s)
	}

	// No code fence found. Look for '{"' to avoid matching braces in prose.
	start := strings.Index(s, `{"`)
	if start == -1 {
		start = strings.Index(s, "{")
	}
	end := strings.LastIndex(s, "}")
	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}

	return strings.TrimSpace(s)
}
