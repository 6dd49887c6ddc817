package merger

import (
	"github.com/oasfold/oasfold/internal/rawutil"
)

// SchemaKind classifies the structural shape of a schema node for
// compatibility decisions.
type SchemaKind int

const (
	// KindUnknown is a schema that fits no other classification.
	KindUnknown SchemaKind = iota
	// KindObject is an object schema (type: object, or untyped with properties).
	KindObject
	// KindArray is an array schema.
	KindArray
	// KindPrimitive is a scalar schema (string, number, integer, boolean, null).
	KindPrimitive
	// KindRef is a schema that is itself a $ref node.
	KindRef
	// KindComposition is an allOf/oneOf/anyOf/not composition.
	KindComposition
)

// String returns a human-readable name for the kind.
func (k SchemaKind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindPrimitive:
		return "primitive"
	case KindRef:
		return "ref"
	case KindComposition:
		return "composition"
	default:
		return "unknown"
	}
}

var primitiveTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"null":    true,
}

// ClassifySchema determines the kind of a raw schema node. For primitives
// the second return is the primitive type name; otherwise it is empty.
func ClassifySchema(node any) (SchemaKind, string) {
	m, ok := node.(map[string]any)
	if !ok {
		return KindUnknown, ""
	}
	if rawutil.Ref(m) != "" {
		return KindRef, ""
	}
	for _, key := range []string{"allOf", "oneOf", "anyOf", "not"} {
		if _, present := m[key]; present {
			return KindComposition, ""
		}
	}

	switch typ := rawutil.GetString(m, "type"); {
	case typ == "object":
		return KindObject, ""
	case typ == "array":
		return KindArray, ""
	case primitiveTypes[typ]:
		return KindPrimitive, typ
	case typ == "":
		// Untyped schemas with object-shaped keywords are treated as objects.
		if _, present := m["properties"]; present {
			return KindObject, ""
		}
		if _, present := m["additionalProperties"]; present {
			return KindObject, ""
		}
		return KindUnknown, ""
	default:
		return KindUnknown, ""
	}
}

// SchemasCompatible reports whether two schema definitions can be merged in
// place: both are objects, or both are the same primitive type. Everything
// else (refs, compositions, arrays, mixed kinds) is treated as opaque and
// incompatible.
func SchemasCompatible(a, b any) bool {
	ka, ta := ClassifySchema(a)
	kb, tb := ClassifySchema(b)
	if ka == KindObject && kb == KindObject {
		return true
	}
	if ka == KindPrimitive && kb == KindPrimitive {
		return ta == tb
	}
	return false
}
