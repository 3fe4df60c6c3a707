package ai

import (
	"encoding/json"
	"strings"
)

// StripFences removes a fenced code block wrapper (```json ... ``` or
// ``` ... ```) from provider output. Providers frequently wrap JSON in
// fences even when told not to.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the opening fence line.
	if idx := strings.Index(s, "\n"); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseJSON strips code fences, decodes the result as a JSON object, and
// verifies every required key is present. It fails closed: callers never see
// partially-shaped data.
func ParseJSON(raw string, required ...string) (map[string]any, error) {
	cleaned := StripFences(raw)

	var doc map[string]any
	decoder := json.NewDecoder(strings.NewReader(cleaned))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, &ParseError{Reason: "invalid JSON: " + err.Error(), Raw: raw}
	}

	var missing []string
	for _, key := range required {
		if _, ok := doc[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{Reason: "missing required keys: " + strings.Join(missing, ", "), Raw: raw}
	}

	return doc, nil
}

// JSONString extracts a string field from a parsed document; empty when the
// key is absent or not a string.
func JSONString(doc map[string]any, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

// JSONBool extracts a boolean field from a parsed document.
func JSONBool(doc map[string]any, key string) bool {
	if v, ok := doc[key].(bool); ok {
		return v
	}
	return false
}

// JSONFloat extracts a numeric field from a parsed document. Handles both
// json.Number (from UseNumber decoding) and float64.
func JSONFloat(doc map[string]any, key string) float64 {
	switch v := doc[key].(type) {
	case json.Number:
		f, _ := v.Float64()
		return f
	case float64:
		return v
	}
	return 0
}
