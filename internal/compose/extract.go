package compose

import "encoding/json"

// parseResult parses an AI response as strict JSON; when that fails it tries
// the first balanced {...} block in the text (models wrap JSON in prose or
// code fences more often than they should).
func parseResult(content string) (*Result, error) {
	var result Result
	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return &result, nil
	}

	block, ok := extractJSONObject(content)
	if !ok {
		return nil, err
	}
	if err2 := json.Unmarshal([]byte(block), &result); err2 != nil {
		return nil, err
	}
	return &result, nil
}

// extractJSONObject returns the first balanced top-level {...} block in s,
// honoring string literals and escapes.
func extractJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
