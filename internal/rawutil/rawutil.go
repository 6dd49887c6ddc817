// Package rawutil provides helpers for working with untyped document trees
// (map[string]any / []any / scalars) as produced by the loader.
package rawutil

// DeepCopy recursively copies a JSON/YAML-compatible value. Primitives copy
// by value; maps and slices are rebuilt so the copy shares no structure with
// the original. Unknown types are returned as-is.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case []any:
		cp := make([]any, len(t))
		for i, item := range t {
			cp[i] = DeepCopy(item)
		}
		return cp
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, item := range t {
			cp[k] = DeepCopy(item)
		}
		return cp
	default:
		return t
	}
}

// CopyMap deep-copies a map tree, preserving nil.
func CopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return DeepCopy(m).(map[string]any)
}

// GetMap returns m[key] as a map, or nil when absent or of another type.
func GetMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

// GetString returns m[key] as a string, or "" when absent or of another type.
func GetString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

// GetSlice returns m[key] as a slice, or nil when absent or of another type.
func GetSlice(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]any)
	return v
}

// EnsureMap returns m[key] as a map, creating and storing an empty one when
// absent or of another type.
func EnsureMap(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	v := map[string]any{}
	m[key] = v
	return v
}

// Ref returns the $ref string of a node, or "" when the node is not a
// reference object.
func Ref(node any) string {
	m, ok := node.(map[string]any)
	if !ok {
		return ""
	}
	return GetString(m, "$ref")
}
