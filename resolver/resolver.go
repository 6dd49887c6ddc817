// Package resolver resolves $ref pointers within and across documents.
//
// A Resolver classifies each reference as internal (a '#/...' fragment
// within the current document) or external (a relative or absolute file path
// with an optional fragment), loads external targets through the shared
// loader, and follows chains of references transitively until a non-$ref
// node is reached. Cycles are detected with a visited set of SourceLocation
// values per chain and reported with the full chain, so legitimate-looking
// but cyclic specs fail fast instead of recursing forever.
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/oasfold/oasfold/loader"
	"github.com/oasfold/oasfold/oaserrors"
)

// MaxChainDepth is the maximum number of transitive $ref hops followed for a
// single resolution. Chains this long are always authoring mistakes; the
// limit keeps a missed cycle-detection case from looping.
const MaxChainDepth = 100

// resolution is a memoized resolve result.
type resolution struct {
	node loader.RawNode
	loc  SourceLocation
}

// Resolver resolves references against documents served by a Loader.
//
// Concurrency: Resolver instances are not safe for concurrent use. Create
// one Resolver per bundling task; the underlying Loader (and its cache) may
// be shared freely.
type Resolver struct {
	loader *loader.Loader
	logger loader.Logger
	// memo caches resolve results per (origin location, pointer) so repeated
	// references to the same target resolve in O(1) after the first chain walk.
	memo map[string]resolution
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger loader.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Resolver backed by the given loader.
func New(ld *loader.Loader, opts ...Option) *Resolver {
	r := &Resolver{
		loader: ld,
		logger: loader.NopLogger{},
		memo:   make(map[string]resolution),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves ref relative to the node at from, following transitive
// $ref chains until a non-$ref node is reached. It returns the resolved node
// together with its location.
//
// The returned node is shared with the loader's cache and must be treated as
// read-only; callers that splice it into another tree must deep-copy first.
func (r *Resolver) Resolve(ref string, from SourceLocation) (loader.RawNode, SourceLocation, error) {
	memoKey := from.Key() + "|" + ref
	if res, ok := r.memo[memoKey]; ok {
		return res.node, res.loc, nil
	}

	// The chain starts at the referencing node so self-references close the
	// cycle immediately.
	chain := []SourceLocation{from}
	visited := map[string]bool{from.Key(): true}

	cur := ref
	curFrom := from
	for depth := 0; ; depth++ {
		if depth >= MaxChainDepth {
			return nil, SourceLocation{}, &oaserrors.ResourceLimitError{
				ResourceType: "ref_depth",
				Limit:        MaxChainDepth,
				Actual:       int64(depth),
				Message:      "reference chain too long: " + ref,
			}
		}

		target, err := r.locate(cur, curFrom)
		if err != nil {
			return nil, SourceLocation{}, err
		}

		if visited[target.Key()] {
			return nil, SourceLocation{}, &oaserrors.CircularReferenceError{
				Ref:   cur,
				Chain: chainStrings(append(chain, target)),
			}
		}
		visited[target.Key()] = true
		chain = append(chain, target)

		node, err := r.fetch(cur, curFrom, target)
		if err != nil {
			return nil, SourceLocation{}, err
		}

		// Any map carrying a $ref is itself a reference; keep following.
		if m, ok := node.(map[string]any); ok {
			if next, ok := m["$ref"].(string); ok {
				cur = next
				curFrom = target
				continue
			}
		}

		r.logger.Debug("resolved reference", "ref", ref, "from", from.String(), "target", target.String(), "hops", depth+1)
		r.memo[memoKey] = resolution{node: node, loc: target}
		return node, target, nil
	}
}

// IsInternal reports whether ref is an internal fragment pointer ('#/...').
func IsInternal(ref string) bool {
	return strings.HasPrefix(ref, "#")
}

// locate classifies ref and computes the SourceLocation it addresses,
// without loading anything.
func (r *Resolver) locate(ref string, from SourceLocation) (SourceLocation, error) {
	if ref == "" {
		return SourceLocation{}, &oaserrors.ReferenceResolutionError{
			Ref:        ref,
			RefType:    "internal",
			SourceFile: from.FilePath,
			Message:    "empty $ref",
		}
	}

	if IsInternal(ref) {
		return SourceLocation{
			FilePath: from.FilePath,
			Pointer:  normalizeFragment(strings.TrimPrefix(ref, "#")),
		}, nil
	}

	pathPart, fragment, _ := strings.Cut(ref, "#")
	if !filepath.IsAbs(pathPart) {
		pathPart = filepath.Clean(filepath.Join(filepath.Dir(from.FilePath), pathPart))
	}
	return SourceLocation{
		FilePath: pathPart,
		Pointer:  normalizeFragment(fragment),
	}, nil
}

// fetch loads the document owning target and walks its fragment.
func (r *Resolver) fetch(ref string, from, target SourceLocation) (loader.RawNode, error) {
	refType := "internal"
	if !IsInternal(ref) {
		refType = "external"
	}

	doc, err := r.loader.Load(target.FilePath)
	if err != nil {
		return nil, &oaserrors.ReferenceResolutionError{
			Ref:        ref,
			RefType:    refType,
			SourceFile: from.FilePath,
			Cause:      err,
		}
	}

	node, err := walkPointer(doc.Root, target.Pointer)
	if err != nil {
		return nil, &oaserrors.ReferenceResolutionError{
			Ref:        ref,
			RefType:    refType,
			SourceFile: from.FilePath,
			Cause:      err,
		}
	}
	return node, nil
}

// normalizeFragment strips a trailing slash-only fragment so "" and "/"
// share one identity.
func normalizeFragment(fragment string) string {
	if fragment == "/" {
		return ""
	}
	return fragment
}

// chainStrings renders a resolution chain for error reporting.
func chainStrings(chain []SourceLocation) []string {
	out := make([]string, len(chain))
	for i, loc := range chain {
		out[i] = loc.String()
	}
	return out
}
