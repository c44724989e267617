package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// DecodeLenient parses a string that may contain a JSON document surrounded
// by extraneous text (prose, markdown fences). It strips the noise, attempts
// a decode, and repairs truncated output before giving up.
func DecodeLenient(text string) (any, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, eris.New("lenient decode: no json content found")
	}

	var v any
	if err := json.Unmarshal([]byte(cleaned), &v); err == nil {
		return v, nil
	}

	repaired := repairTruncatedJSON(cleaned)
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, eris.Wrap(err, "lenient decode: unmarshal")
	}
	return v, nil
}

// cleanJSON strips markdown code fences and any prose around the outermost
// JSON object or array.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find the outermost object or array, whichever opens first.
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	start, closer := objStart, "}"
	if objStart < 0 || (arrStart >= 0 && arrStart < objStart) {
		start, closer = arrStart, "]"
	}
	if start >= 0 {
		if end := strings.LastIndex(text, closer); end > start {
			text = text[start : end+1]
		} else {
			text = text[start:]
		}
	}

	return strings.TrimSpace(text)
}

// repairTruncatedJSON closes any unclosed brackets or braces in truncated JSON.
func repairTruncatedJSON(text string) string {
	if len(text) == 0 {
		return text
	}

	// Track open delimiters in order.
	var stack []byte
	inString := false
	escape := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if escape {
			escape = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escape = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		text += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			text += "}"
		} else {
			text += "]"
		}
	}
	return text
}
