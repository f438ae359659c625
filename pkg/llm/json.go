package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// reasoningTagPattern matches <think>...</think> preambles emitted by some
// open-weight models before their answer.
var reasoningTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// ExtractJSON pulls the first balanced JSON object or array out of a model
// response that may be wrapped in reasoning tags, markdown fences, or prose.
func ExtractJSON(response string) (string, error) {
	cleaned := reasoningTagPattern.ReplaceAllString(response, "")

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if jsonStr, ok := extractBalanced(cleaned, '{', '}'); ok && json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}
	if arrStart >= 0 {
		if jsonStr, ok := extractBalanced(cleaned, '[', ']'); ok && json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}

	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}
	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalanced finds the first balanced structure opened by openChar,
// tracking string literals and escapes so braces inside strings don't count.
func extractBalanced(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseGeneration extracts and unmarshals a Generation from raw model output.
func parseGeneration(response string) (*Generation, error) {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return nil, err
	}
	var gen Generation
	if err := json.Unmarshal([]byte(jsonStr), &gen); err != nil {
		return nil, fmt.Errorf("unmarshal generation: %w", err)
	}
	if strings.TrimSpace(gen.SQL) == "" {
		return nil, fmt.Errorf("generation missing sql field")
	}
	return &gen, nil
}
