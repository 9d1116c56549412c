package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseJSON pulls the outermost JSON object out of an LLM reply and unmarshals it into T.
// It handles markdown fences and prose around the object.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	jsonStr, err := ExtractObject(response)
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}

	return result, nil
}

// ExtractObject returns the text between the first '{' and the last '}' of response,
// checked to be valid JSON.
func ExtractObject(response string) (string, error) {
	s := strings.TrimSpace(response)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response (missing '{')")
	}
	end := strings.LastIndexByte(s, '}')
	if end < start {
		return "", fmt.Errorf("no JSON object found in response (missing '}')")
	}

	obj := s[start : end+1]
	if !gjson.Valid(obj) {
		return "", fmt.Errorf("malformed JSON object in response: %s", obj)
	}
	return obj, nil
}

// Truncate cuts s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
