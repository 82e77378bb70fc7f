package advisor

import (
	"errors"
	"strings"

	"github.com/bytedance/sonic"
)

var errNoJSON = errors.New("completion contains no JSON object")

// extractJSON returns the outermost {...} of a completion, ignoring Markdown
// code fences and any prose around the object.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last < first {
		return "", errNoJSON
	}
	return text[first : last+1], nil
}

func decodeJSON(text string, v any) error {
	raw, err := extractJSON(text)
	if err != nil {
		return err
	}
	return sonic.ConfigDefault.UnmarshalFromString(raw, v)
}

func encodeJSON(v any) string {
	out, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}

// parseBullets splits a bulleted list into items. "•" separates items
// anywhere; "-", "*" and "1." only when they open a line, so hyphenated
// words survive. Unmarked lines continue the previous item; an unmarked
// lead-in ending in ":" is dropped.
func parseBullets(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		for i, part := range strings.Split(line, "•") {
			part = strings.TrimSpace(part)
			marked := i > 0
			if s, ok := trimMarker(part); ok {
				part, marked = s, true
			}
			if part == "" {
				continue
			}
			if !marked && len(items) == 0 && strings.HasSuffix(part, ":") {
				continue
			}
			if !marked && len(items) > 0 && i == 0 {
				items[len(items)-1] += " " + part
				continue
			}
			items = append(items, part)
		}
	}
	return items
}

func trimMarker(s string) (string, bool) {
	switch {
	case strings.HasPrefix(s, "- "), strings.HasPrefix(s, "* "):
		return strings.TrimSpace(s[2:]), true
	case s == "-" || s == "*":
		return "", true
	}
	// numbered: "1." or "12)"
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return strings.TrimSpace(s[i+1:]), true
	}
	return s, false
}
