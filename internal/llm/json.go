// ABOUTME: JSON extraction from free-form model answers
// ABOUTME: Strips markdown fences and decodes the first JSON value found
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON pulls the first JSON object or array out of response into T
func DecodeJSON[T any](response string) (T, error) {
	var result T

	cleaned := stripFences(response)
	idx := strings.IndexAny(cleaned, "{[")
	if idx == -1 {
		return result, fmt.Errorf("%w: no JSON value in answer", ErrMalformedResponse)
	}

	decoder := json.NewDecoder(strings.NewReader(cleaned[idx:]))
	if err := decoder.Decode(&result); err != nil {
		return result, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return result, nil
}

// stripFences removes ```json ... ``` wrappers
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
