package merger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oasfold/oasfold/internal/rawutil"
)

const parameterRefPrefix = "#/components/parameters/"

// canonicalize renders a raw node as a stable string with sorted map keys,
// so structurally equal nodes produce equal strings regardless of source
// formatting or key order. When root is non-nil, local component references
// are expanded through it; a visited set breaks reference cycles.
func canonicalize(node any, root map[string]any) string {
	var sb strings.Builder
	writeCanonical(&sb, node, root, make(map[string]bool))
	return sb.String()
}

func writeCanonical(sb *strings.Builder, node any, root map[string]any, visited map[string]bool) {
	switch v := node.(type) {
	case map[string]any:
		if ref := rawutil.Ref(v); ref != "" && root != nil {
			if visited[ref] {
				sb.WriteString("cycle(")
				sb.WriteString(ref)
				sb.WriteString(")")
				return
			}
			if target := lookupLocalRef(root, ref); target != nil {
				visited[ref] = true
				writeCanonical(sb, target, root, visited)
				delete(visited, ref)
				return
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(k)
			sb.WriteString(":")
			writeCanonical(sb, v[k], root, visited)
		}
		sb.WriteString("}")
	case []any:
		sb.WriteString("[")
		for i, item := range v {
			if i > 0 {
				sb.WriteString(",")
			}
			writeCanonical(sb, item, root, visited)
		}
		sb.WriteString("]")
	case string:
		sb.WriteString(fmt.Sprintf("%q", v))
	case nil:
		sb.WriteString("null")
	default:
		fmt.Fprintf(sb, "%v", v)
	}
}

// lookupLocalRef resolves a "#/components/<section>/<name>" reference
// against root. It only handles the flat component shapes the merger
// produces; anything else returns nil and the reference is rendered as-is.
func lookupLocalRef(root map[string]any, ref string) any {
	rest, ok := strings.CutPrefix(ref, "#/components/")
	if !ok {
		return nil
	}
	section, name, ok := strings.Cut(rest, "/")
	if !ok || strings.Contains(name, "/") {
		return nil
	}
	components := rawutil.GetMap(root, "components")
	if components == nil {
		return nil
	}
	sectionMap := rawutil.GetMap(components, section)
	if sectionMap == nil {
		return nil
	}
	return sectionMap[name]
}

// sameShape reports whether two nodes are structurally equal after
// canonicalization, expanding local references against their owning roots.
func sameShape(a any, rootA map[string]any, b any, rootB map[string]any) bool {
	return canonicalize(a, rootA) == canonicalize(b, rootB)
}
