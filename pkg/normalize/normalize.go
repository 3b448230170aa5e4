// Package normalize decodes the legacy serialized list fields stored on
// leads and properties (preferred cities/states, amenities, available_for).
package normalize

import (
	"encoding/json"
	"strings"
)

// StringList decodes a serialized list field. The canonical encoding is a
// JSON array of strings; older rows carry comma-separated values. Malformed
// JSON yields an empty list with ok=false so callers can log it — one bad
// record must never abort a matching pass.
func StringList(raw string) (values []string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}

	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil, false
		}
		return compact(values), true
	}

	// legacy comma-separated form
	return compact(strings.Split(raw, ",")), true
}

// EncodeStringList serializes a list field in its canonical JSON array form.
func EncodeStringList(values []string) string {
	values = compact(values)
	if len(values) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(values)
	return string(data)
}

// LowerSet builds a case-insensitive membership set
func LowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func compact(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}
