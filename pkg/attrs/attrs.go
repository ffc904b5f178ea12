// Package attrs reads values out of slog-style key-value attribute slices.
package attrs

// ExtractString extracts a string value from a key-value attribute slice.
// The slice should be formatted as [key1, value1, key2, value2, ...].
// Returns empty string if the key is not found or the value is not a string.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok {
			continue
		}
		if k == key {
			if v, ok := attrs[i+1].(string); ok {
				return v
			}
		}
	}
	return ""
}

// ToMap converts a key-value attribute slice into a map. Non-string keys and
// a dangling trailing value are skipped. Returns nil for an empty result so
// callers can serialize it compactly.
func ToMap(attrs []any) map[string]any {
	if len(attrs) < 2 {
		return nil
	}
	m := make(map[string]any, len(attrs)/2)
	for i := 0; i+1 < len(attrs); i += 2 {
		k, ok := attrs[i].(string)
		if !ok {
			continue
		}
		m[k] = attrs[i+1]
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
