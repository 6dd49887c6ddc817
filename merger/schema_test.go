package merger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySchema(t *testing.T) {
	tests := []struct {
		name     string
		node     any
		kind     SchemaKind
		primType string
	}{
		{name: "explicit object", node: map[string]any{"type": "object"}, kind: KindObject},
		{name: "untyped with properties", node: map[string]any{"properties": map[string]any{}}, kind: KindObject},
		{name: "untyped with additionalProperties", node: map[string]any{"additionalProperties": false}, kind: KindObject},
		{name: "array", node: map[string]any{"type": "array", "items": map[string]any{}}, kind: KindArray},
		{name: "string", node: map[string]any{"type": "string"}, kind: KindPrimitive, primType: "string"},
		{name: "integer with format", node: map[string]any{"type": "integer", "format": "int64"}, kind: KindPrimitive, primType: "integer"},
		{name: "ref", node: map[string]any{"$ref": "#/components/schemas/User"}, kind: KindRef},
		{name: "allOf", node: map[string]any{"allOf": []any{}}, kind: KindComposition},
		{name: "oneOf", node: map[string]any{"oneOf": []any{}}, kind: KindComposition},
		{name: "not", node: map[string]any{"not": map[string]any{}}, kind: KindComposition},
		{name: "empty map", node: map[string]any{}, kind: KindUnknown},
		{name: "non-map", node: "oops", kind: KindUnknown},
		{name: "bogus type", node: map[string]any{"type": "tuple"}, kind: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, primType := ClassifySchema(tt.node)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.primType, primType)
		})
	}
}

func TestSchemasCompatible(t *testing.T) {
	obj := map[string]any{"type": "object"}
	str := map[string]any{"type": "string"}
	integer := map[string]any{"type": "integer"}
	ref := map[string]any{"$ref": "#/components/schemas/X"}
	comp := map[string]any{"allOf": []any{}}
	arr := map[string]any{"type": "array"}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "object vs object", a: obj, b: map[string]any{"properties": map[string]any{}}, want: true},
		{name: "same primitive", a: str, b: map[string]any{"type": "string", "maxLength": 10}, want: true},
		{name: "different primitives", a: str, b: integer, want: false},
		{name: "object vs primitive", a: obj, b: str, want: false},
		{name: "ref is opaque", a: ref, b: ref, want: false},
		{name: "composition is opaque", a: comp, b: comp, want: false},
		{name: "arrays are opaque", a: arr, b: arr, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SchemasCompatible(tt.a, tt.b))
		})
	}
}
