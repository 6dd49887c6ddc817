package merger

import (
	"github.com/oasfold/oasfold/internal/rawutil"
)

const schemaRefPrefix = "#/components/schemas/"

// refRewriter rewrites schema references after renames. It walks a raw
// document tree and replaces any $ref string registered in its map, so a
// rename propagates transitively through the owning document.
type refRewriter struct {
	refMap map[string]string
}

func newRefRewriter() *refRewriter {
	return &refRewriter{refMap: make(map[string]string)}
}

// registerSchemaRename maps references to the old schema name onto the new
// one.
func (r *refRewriter) registerSchemaRename(oldName, newName string) {
	r.refMap[schemaRefPrefix+oldName] = schemaRefPrefix + newName
}

func (r *refRewriter) empty() bool {
	return len(r.refMap) == 0
}

// rewrite walks node in place, replacing registered $ref values.
func (r *refRewriter) rewrite(node any) {
	switch v := node.(type) {
	case map[string]any:
		if ref := rawutil.Ref(v); ref != "" {
			if replacement, ok := r.refMap[ref]; ok {
				v["$ref"] = replacement
			}
		}
		for _, child := range v {
			r.rewrite(child)
		}
	case []any:
		for _, child := range v {
			r.rewrite(child)
		}
	}
}
