package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON strips markdown fences and surrounding prose from a model
// response and returns the first valid JSON object or array in it. Text that
// is already valid JSON is returned as is, so fences inside string values
// survive. The input is returned trimmed when no valid JSON value is found.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if json.Valid([]byte(text)) {
		return text
	}

	stripped := stripFence(text)
	if json.Valid([]byte(stripped)) {
		return stripped
	}

	if candidate, ok := firstJSONValue(stripped); ok {
		return candidate
	}

	// a fence inside a string value cuts the stripped text short
	if candidate, ok := firstJSONValue(text); ok {
		return candidate
	}

	return stripped
}

func firstJSONValue(text string) (string, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}

		if end := matchingClose(text, i); end > i {
			candidate := text[i : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
	}

	return "", false
}

func stripFence(text string) string {
	start := strings.Index(text, "```")
	if start == -1 {
		return text
	}

	body := text[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		// Drop the language tag line (```json).
		if tag := strings.TrimSpace(body[:nl]); !strings.ContainsAny(tag, "{[") {
			body = body[nl+1:]
		}
	}

	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}

	return strings.TrimSpace(body)
}

// matchingClose returns the index of the bracket closing the one at start,
// skipping brackets inside JSON strings, or -1.
func matchingClose(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

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
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
