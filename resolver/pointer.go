package resolver

import (
	"fmt"
	"strconv"
	"strings"
)

// walkPointer traverses root along a JSON Pointer fragment and returns the
// node it addresses. The fragment is the part after '#', e.g.
// "/components/schemas/Pet"; empty or "/" addresses the root.
func walkPointer(root any, fragment string) (any, error) {
	if fragment == "" || fragment == "/" {
		return root, nil
	}

	parts := strings.Split(strings.TrimPrefix(fragment, "/"), "/")
	current := root
	for i, part := range parts {
		part = unescapeJSONPointer(part)

		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("fragment not found: /%s (missing key: %s)", strings.Join(parts[:i+1], "/"), part)
			}
			current = next

		case []any:
			// Array indexing per RFC 6901 (JSON Pointer)
			index, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid array index '%s' in fragment: /%s (must be a non-negative integer)", part, strings.Join(parts[:i+1], "/"))
			}
			if index < 0 || index >= len(v) {
				return nil, fmt.Errorf("array index %d out of bounds (length %d) in fragment: /%s", index, len(v), strings.Join(parts[:i+1], "/"))
			}
			current = v[index]

		default:
			return nil, fmt.Errorf("cannot traverse into type %T at /%s", v, strings.Join(parts[:i], "/"))
		}
	}

	return current, nil
}

// unescapeJSONPointer unescapes JSON Pointer tokens.
// Per RFC 6901, ~1 represents / and ~0 represents ~.
func unescapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	token = strings.ReplaceAll(token, "~0", "~")
	return token
}
