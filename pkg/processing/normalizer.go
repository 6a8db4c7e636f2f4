package processing

import (
	"encoding/json"
	"strings"

	"mercator-hq/scribe/pkg/fields"
	"mercator-hq/scribe/pkg/providers"
)

// Normalize converts raw model output into response content.
//
// For list-shaped field types, text beginning with '[' (after trimming and
// removing a surrounding code fence) is parsed as a JSON array of strings.
// On success the array is returned; on any parse failure the original raw
// text is kept unchanged. All other field types pass through as text.
func Normalize(raw string, fieldType fields.FieldType) providers.Content {
	if !fieldType.IsList() {
		return providers.TextContent(raw)
	}

	candidate := stripFence(strings.TrimSpace(raw))
	if !strings.HasPrefix(candidate, "[") {
		return providers.TextContent(raw)
	}

	items, ok := parseStringArray(candidate)
	if !ok {
		return providers.TextContent(raw)
	}
	return providers.ListContent(items)
}

// parseStringArray decodes a JSON array. Non-string scalar elements are
// rendered as text; nested arrays or objects reject the whole answer.
func parseStringArray(text string) ([]string, bool) {
	var items []string
	if err := json.Unmarshal([]byte(text), &items); err == nil {
		return items, true
	}

	var loose []any
	if err := json.Unmarshal([]byte(text), &loose); err != nil {
		return nil, false
	}
	items = make([]string, 0, len(loose))
	for _, v := range loose {
		switch t := v.(type) {
		case string:
			items = append(items, t)
		case float64, bool:
			b, _ := json.Marshal(t)
			items = append(items, string(b))
		default:
			return nil, false
		}
	}
	return items, true
}

// stripFence removes a Markdown code fence (``` or ```json) around text.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the info string ("json", "JSON", ...).
		if !strings.ContainsAny(body[:nl], "[{") {
			body = body[nl+1:]
		}
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
