// Package parseutils holds the key/value tokenizer shared by the annotation parsers.
package parseutils

import (
	"strings"
)

const platformPrefix = "platform."

// ParseKeyValueComment extracts key="value" pairs from a directive comment such as
//
//	//migrator:schema:field name="release_date" type="DATE" not_null="true"
//
// The directive itself is skipped. Values may contain spaces and escaped quotes (\").
// Bare keys without a value are recorded as "true".
func ParseKeyValueComment(comment string) map[string]string {
	result := make(map[string]string)

	text := strings.TrimSpace(strings.TrimPrefix(comment, "//"))
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		text = text[i+1:]
	} else {
		return result
	}

	for len(text) > 0 {
		text = strings.TrimLeft(text, " \t")
		if text == "" {
			break
		}

		eq := strings.IndexAny(text, "= \t")
		if eq < 0 {
			result[text] = "true"
			break
		}
		key := text[:eq]
		if text[eq] != '=' {
			result[key] = "true"
			text = text[eq:]
			continue
		}
		text = text[eq+1:]

		var value string
		value, text = readValue(text)
		result[key] = value
	}

	return result
}

func readValue(text string) (value, rest string) {
	if !strings.HasPrefix(text, `"`) {
		end := strings.IndexAny(text, " \t")
		if end < 0 {
			return text, ""
		}
		return text[:end], text[end:]
	}

	var b strings.Builder
	for i := 1; i < len(text); i++ {
		switch ch := text[i]; {
		case ch == '\\' && i+1 < len(text) && text[i+1] == '"':
			b.WriteByte('"')
			i++
		case ch == '"':
			return b.String(), text[i+1:]
		default:
			b.WriteByte(ch)
		}
	}
	// unterminated quote: take the remainder
	return b.String(), ""
}

// ParsePlatformSpecific collects platform.<name>.<key> entries into a per-platform map.
// It returns nil when no platform overrides are present.
func ParsePlatformSpecific(kv map[string]string) map[string]map[string]string {
	var result map[string]map[string]string
	for k, v := range kv {
		if !strings.HasPrefix(k, platformPrefix) {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(k, platformPrefix), ".", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		if result == nil {
			result = make(map[string]map[string]string)
		}
		if result[parts[0]] == nil {
			result[parts[0]] = make(map[string]string)
		}
		result[parts[0]][parts[1]] = v
	}
	return result
}
