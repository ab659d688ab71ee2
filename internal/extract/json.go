package extract

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseLLMObject recovers a JSON object from semantic-service response text.
// Accepts bare JSON, JSON fenced in a markdown code block, or JSON embedded
// in surrounding prose located via balanced-brace scanning; the first
// well-formed object wins.
func ParseLLMObject(text string) (map[string]any, error) {
	cleaned := stripCodeFence(strings.TrimSpace(text))

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, nil
	}

	// Scan prose for balanced top-level objects and try each in turn.
	for start := 0; start < len(cleaned); {
		open := strings.Index(cleaned[start:], "{")
		if open < 0 {
			break
		}
		open += start
		end, ok := matchBrace(cleaned, open)
		if !ok {
			break
		}
		candidate := cleaned[open : end+1]
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, nil
		}
		start = open + 1
	}

	// Last resort: repair a truncated object and retry.
	repaired := repairTruncatedJSON(cleaned)
	if err := json.Unmarshal([]byte(repaired), &obj); err == nil {
		return obj, nil
	}

	return nil, eris.New("extract: no well-formed JSON object in response")
}

func stripCodeFence(text string) string {
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
	return strings.TrimSpace(text)
}

// matchBrace finds the index of the brace closing the one at open,
// respecting strings and escapes.
func matchBrace(s string, open int) (int, bool) {
	depth := 0
	inString := false
	escape := false
	for i := open; i < len(s); i++ {
		c := s[i]
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
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}

// repairTruncatedJSON closes any unclosed brackets or braces in truncated
// JSON, dropping a dangling partial token first.
func repairTruncatedJSON(text string) string {
	if len(text) == 0 {
		return text
	}

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
	text = strings.TrimRight(text, ", \n\t")
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			text += "}"
		} else {
			text += "]"
		}
	}
	return text
}
