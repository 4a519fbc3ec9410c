package perception

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls the first well-formed JSON object or array out of raw
// LLM output and unmarshals it into v. Models routinely wrap payloads in
// markdown code fences or surround them with prose; both are tolerated.
// Any failure is returned as an error for the caller to treat as a
// detector/generator failure.
func ExtractJSON(raw string, v interface{}) error {
	cleaned := StripCodeFences(raw)

	// Fast path: the whole response is the payload.
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	for _, candidate := range findJSONCandidates(cleaned) {
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no parseable JSON in response (%d bytes)", len(raw))
}

// StripCodeFences removes a surrounding markdown code fence, if present.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	// Drop the opening fence line (``` or ```json).
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		return trimmed
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// findJSONCandidates scans the input for top-level JSON object or array
// candidates. It uses a byte-level state machine that tracks string and
// escape state, so braces inside string values never confuse the depth
// count. Iterating bytes is safe for the ASCII delimiters involved:
// UTF-8 guarantees ASCII bytes never occur inside multi-byte sequences.
func findJSONCandidates(s string) []string {
	var candidates []string
	var depth int
	start := -1
	var open, close byte
	var inString, escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch {
		case b == '"':
			if depth > 0 {
				inString = true
			}
		case depth == 0 && (b == '{' || b == '['):
			start = i
			open = b
			if b == '{' {
				close = '}'
			} else {
				close = ']'
			}
			depth = 1
		case depth > 0 && b == open:
			depth++
		case depth > 0 && b == close:
			depth--
			if depth == 0 && start != -1 {
				candidates = append(candidates, s[start:i+1])
				start = -1
			}
		}
	}
	return candidates
}

// truncateForLog clips a string for log output.
func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
