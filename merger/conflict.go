package merger

// ConflictKind identifies what kind of element collided during a merge.
type ConflictKind int

const (
	// ConflictSchema is a components.schemas name collision.
	ConflictSchema ConflictKind = iota
	// ConflictOperation is a (path, method) collision.
	ConflictOperation
	// ConflictComponent is a named component collision outside schemas
	// (components.parameters, components.responses, and so on).
	ConflictComponent
	// ConflictHeader is a structural header parameter duplication.
	ConflictHeader
)

// String returns a human-readable name for the conflict kind.
func (k ConflictKind) String() string {
	switch k {
	case ConflictSchema:
		return "schema"
	case ConflictOperation:
		return "operation"
	case ConflictComponent:
		return "component"
	case ConflictHeader:
		return "header"
	default:
		return "unknown"
	}
}

// Action is the resolution chosen for a conflict.
type Action int

const (
	// ActionUnspecified leaves the decision to the default policy.
	ActionUnspecified Action = iota
	// ActionMergeInPlace combines both definitions into one.
	ActionMergeInPlace
	// ActionRenameAndKeepBoth keeps both definitions, renaming the later one.
	ActionRenameAndKeepBoth
	// ActionPreferFirst keeps the earlier definition and drops the later one.
	ActionPreferFirst
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionMergeInPlace:
		return "merge_in_place"
	case ActionRenameAndKeepBoth:
		return "rename_and_keep_both"
	case ActionPreferFirst:
		return "prefer_first"
	default:
		return "unspecified"
	}
}

// Conflict describes a single collision between two specs being merged.
type Conflict struct {
	// Kind identifies what collided.
	Kind ConflictKind
	// Identity names the colliding element: a schema name, "METHOD path"
	// for operations, a component name, or a header parameter name.
	Identity string
	// Sources are the titles of the specs on each side of the collision,
	// earlier spec first.
	Sources []string
	// Compatible reports whether the two definitions can be merged in
	// place. Only meaningful for schema conflicts.
	Compatible bool
}

// Policy overrides the default resolution for selected conflict kinds.
// The zero value applies the defaults throughout.
type Policy struct {
	// IncompatibleSchema overrides the action for schema collisions that
	// fail the compatibility check. Default: rename and keep both.
	IncompatibleSchema Action
	// Component overrides the action for non-schema component collisions.
	// Default: prefer the first document.
	Component Action
}

// ResolveConflict decides how a conflict is handled. It is a pure function
// of the conflict and the policy: operations always merge, compatible
// schemas merge, incompatible schemas rename, components keep the first
// definition, and duplicated headers collapse into one.
func ResolveConflict(c Conflict, p Policy) Action {
	switch c.Kind {
	case ConflictOperation, ConflictHeader:
		return ActionMergeInPlace
	case ConflictSchema:
		if c.Compatible {
			return ActionMergeInPlace
		}
		if p.IncompatibleSchema != ActionUnspecified {
			return p.IncompatibleSchema
		}
		return ActionRenameAndKeepBoth
	case ConflictComponent:
		if p.Component != ActionUnspecified {
			return p.Component
		}
		return ActionPreferFirst
	default:
		return ActionPreferFirst
	}
}
