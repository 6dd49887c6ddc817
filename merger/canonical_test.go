package merger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeIgnoresKeyOrder(t *testing.T) {
	a := map[string]any{"name": "limit", "in": "query", "schema": map[string]any{"type": "integer"}}
	b := map[string]any{"schema": map[string]any{"type": "integer"}, "in": "query", "name": "limit"}
	assert.Equal(t, canonicalize(a, nil), canonicalize(b, nil))
}

func TestCanonicalizeDistinguishesValues(t *testing.T) {
	a := map[string]any{"required": true}
	b := map[string]any{"required": false}
	assert.NotEqual(t, canonicalize(a, nil), canonicalize(b, nil))

	// The string "true" and the boolean true are different shapes.
	c := map[string]any{"required": "true"}
	assert.NotEqual(t, canonicalize(a, nil), canonicalize(c, nil))
}

func TestCanonicalizeExpandsLocalRefs(t *testing.T) {
	root := map[string]any{
		"components": map[string]any{
			"parameters": map[string]any{
				"Limit": map[string]any{"name": "limit", "in": "query"},
			},
		},
	}
	inline := map[string]any{"name": "limit", "in": "query"}
	ref := map[string]any{"$ref": "#/components/parameters/Limit"}

	assert.Equal(t, canonicalize(inline, nil), canonicalize(ref, root))
}

func TestCanonicalizeRefCycle(t *testing.T) {
	root := map[string]any{
		"components": map[string]any{
			"schemas": map[string]any{
				"Node": map[string]any{"$ref": "#/components/schemas/Node"},
			},
		},
	}
	// Must terminate rather than recurse forever.
	out := canonicalize(map[string]any{"$ref": "#/components/schemas/Node"}, root)
	assert.Contains(t, out, "cycle")
}

func TestSameShapeAcrossRoots(t *testing.T) {
	rootA := map[string]any{
		"components": map[string]any{
			"schemas": map[string]any{"ID": map[string]any{"type": "string"}},
		},
	}
	refNode := map[string]any{"$ref": "#/components/schemas/ID"}
	inline := map[string]any{"type": "string"}
	assert.True(t, sameShape(refNode, rootA, inline, nil))
	assert.False(t, sameShape(refNode, rootA, map[string]any{"type": "integer"}, nil))
}
