// Package bundler produces one self-contained document per input spec.
//
// Bundling performs a depth-first traversal of the entry document and
// eliminates every external $ref, so the result contains no references
// outside its own tree. A reference whose target is a named component is
// re-homed: the component is copied into the entry document's components
// section and the reference rewritten to an internal pointer, which keeps
// recursive schemas valid. Any other external target is spliced over the
// referencing node in place. Internal references of the entry document are
// preserved as pointers (they stay valid and meaningful in the output) but
// are proven reachable and acyclic during the walk.
//
// Bundling is idempotent: running it over a document that already contains
// no external references produces a structurally identical tree.
package bundler

import (
	"context"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/oasfold/oasfold/internal/naming"
	"github.com/oasfold/oasfold/internal/rawutil"
	"github.com/oasfold/oasfold/loader"
	"github.com/oasfold/oasfold/oaserrors"
	"github.com/oasfold/oasfold/resolver"
)

// MaxNestingDepth bounds the traversal depth during bundling. Splicing can
// only deepen a tree, so a generous fixed bound is enough to turn a missed
// cycle into an error instead of a stack overflow.
const MaxNestingDepth = 500

// ResolvedDocument is a bundled spec: a single tree with no remaining
// external $refs. It is owned exclusively by the Bundle call that produced
// it and must not be mutated afterwards; the merger deep-copies before
// folding.
type ResolvedDocument struct {
	// Root is the bundled document tree
	Root map[string]any
	// EntryPath is the absolute path of the entry file
	EntryPath string
	// Format is the serialization format of the entry file
	Format loader.SourceFormat
	// Title is info.title, falling back to the entry file name
	Title string
	// Version is info.version ("" when absent)
	Version string
	// OpenAPI is the declared openapi version string
	OpenAPI string
}

// Bundler bundles entry documents using a shared loader.
//
// Concurrency: a Bundler may be shared across goroutines; each Bundle call
// builds its own resolver state, and the loader cache is the only shared
// state.
type Bundler struct {
	loader *loader.Loader
	logger loader.Logger
}

// Option configures a Bundler.
type Option func(*Bundler)

// WithLogger sets the logger used for bundling diagnostics.
func WithLogger(logger loader.Logger) Option {
	return func(b *Bundler) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Bundler backed by the given loader.
func New(ld *loader.Loader, opts ...Option) *Bundler {
	b := &Bundler{
		loader: ld,
		logger: loader.NopLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bundle loads the spec rooted at entryPath and returns its bundled form.
// A resolver error aborts bundling for this spec only; sibling specs
// bundled from the same loader are unaffected.
func (b *Bundler) Bundle(ctx context.Context, entryPath string) (*ResolvedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := b.loader.Load(entryPath)
	if err != nil {
		return nil, err
	}
	if err := validateStructure(doc); err != nil {
		return nil, err
	}

	// The loader's cached tree is shared; all splicing happens on a copy.
	root := rawutil.CopyMap(doc.Root)

	w := &spliceWalker{
		resolver:  resolver.New(b.loader, resolver.WithLogger(b.logger)),
		entryPath: doc.Path,
		root:      root,
		localized: make(map[string]string),
		splicing:  make(map[string]bool),
	}
	if err := w.walk(root, doc.Path, "", 0); err != nil {
		return nil, err
	}

	info := rawutil.GetMap(root, "info")
	title := rawutil.GetString(info, "title")
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path))
	}

	b.logger.Debug("bundled spec", "entry", doc.Path, "title", title)
	return &ResolvedDocument{
		Root:      root,
		EntryPath: doc.Path,
		Format:    doc.Format,
		Title:     title,
		Version:   rawutil.GetString(info, "version"),
		OpenAPI:   rawutil.GetString(root, "openapi"),
	}, nil
}

// validateStructure rejects documents that are not OpenAPI 3.x before any
// resolution work starts.
func validateStructure(doc *loader.Document) error {
	version := rawutil.GetString(doc.Root, "openapi")
	switch {
	case version == "":
		return &oaserrors.InvalidSpecError{
			Path:    doc.Path,
			Field:   "openapi",
			Message: "missing openapi version declaration",
		}
	case !strings.HasPrefix(version, "3."):
		return &oaserrors.InvalidSpecError{
			Path:    doc.Path,
			Field:   "openapi",
			Message: "unsupported version " + version + " (only 3.x is supported)",
		}
	}
	if _, ok := doc.Root["paths"]; !ok {
		return &oaserrors.InvalidSpecError{
			Path:    doc.Path,
			Field:   "paths",
			Message: "missing paths object",
		}
	}
	return nil
}

// spliceWalker carries the traversal state for one Bundle call.
type spliceWalker struct {
	resolver  *resolver.Resolver
	entryPath string
	// root is the output tree; re-homed components land under its
	// components section.
	root map[string]any
	// localized maps a foreign component location to the internal ref it
	// was re-homed under. A hit terminates recursive schema walks.
	localized map[string]string
	// splicing tracks target locations currently being spliced on the walk
	// stack; a recurrence means the documents form a structural cycle.
	splicing map[string]bool
	// chain is the ordered splice stack for cycle error reporting.
	chain []resolver.SourceLocation
}

// walk traverses node depth-first. docPath identifies the document the
// current subtree originally came from: the entry document for untouched
// nodes, or the external file a surrounding splice pulled in. A '#/...' ref
// is only truly internal when the subtree belongs to the entry document;
// inside spliced foreign content it addresses the foreign document and is
// resolved against that document instead.
func (w *spliceWalker) walk(node any, docPath, ptr string, depth int) error {
	if depth > MaxNestingDepth {
		return &oaserrors.ResourceLimitError{
			ResourceType: "nesting_depth",
			Limit:        MaxNestingDepth,
			Actual:       int64(depth),
			Message:      "document too deeply nested at " + ptr,
		}
	}

	switch v := node.(type) {
	case map[string]any:
		if ref, ok := v["$ref"].(string); ok {
			return w.spliceRef(v, ref, docPath, ptr, depth)
		}
		for key, val := range v {
			if err := w.walk(val, docPath, ptr+"/"+escapeJSONPointer(key), depth+1); err != nil {
				return err
			}
		}

	case []any:
		for i, item := range v {
			if err := w.walk(item, docPath, ptr+"/"+strconv.Itoa(i), depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}

// spliceRef handles a node carrying $ref.
func (w *spliceWalker) spliceRef(node map[string]any, ref, docPath, ptr string, depth int) error {
	loc := resolver.SourceLocation{FilePath: docPath, Pointer: ptr}

	if resolver.IsInternal(ref) && docPath == w.entryPath {
		// Internal refs of the entry document stay as pointers; resolving
		// proves the target reachable and the chain acyclic.
		_, _, err := w.resolver.Resolve(ref, loc)
		return err
	}

	resolved, target, err := w.resolver.Resolve(ref, loc)
	if err != nil {
		return err
	}

	// A target that lives in the entry document is already part of the
	// output tree; the ref just becomes internal.
	if target.FilePath == w.entryPath {
		rewriteToRef(node, "#"+target.Pointer)
		return nil
	}
	if local, ok := w.localized[target.Key()]; ok {
		rewriteToRef(node, local)
		return nil
	}
	if section, name, ok := splitComponentPointer(target.Pointer); ok {
		return w.localize(node, resolved, target, section, name, depth)
	}

	if w.splicing[target.Key()] {
		return &oaserrors.CircularReferenceError{
			Ref:   ref,
			Chain: spliceChain(w.chain, loc, target),
		}
	}

	resolvedMap, ok := resolved.(map[string]any)
	if !ok {
		return &oaserrors.ReferenceResolutionError{
			Ref:        ref,
			RefType:    "external",
			SourceFile: docPath,
			Message:    "resolved target is not an object",
		}
	}

	// Splice in place: drop the $ref (and any sibling annotations) and copy
	// the resolved content over. Deep copy so the loader cache stays pristine.
	for key := range node {
		delete(node, key)
	}
	for key, val := range resolvedMap {
		node[key] = rawutil.DeepCopy(val)
	}

	w.splicing[target.Key()] = true
	w.chain = append(w.chain, target)
	err = w.walk(node, target.FilePath, target.Pointer, depth+1)
	w.chain = w.chain[:len(w.chain)-1]
	delete(w.splicing, target.Key())
	return err
}

// localize re-homes a foreign component under the entry document's
// components section and rewrites the referencing node to an internal
// pointer. The local name is registered before the copied content is walked,
// so a schema that references itself resolves to its own re-homed copy
// instead of recursing.
func (w *spliceWalker) localize(node map[string]any, resolved any, target resolver.SourceLocation, section, name string, depth int) error {
	resolvedMap, ok := resolved.(map[string]any)
	if !ok {
		return &oaserrors.ReferenceResolutionError{
			Ref:        rawutil.Ref(node),
			RefType:    "external",
			SourceFile: target.FilePath,
			Message:    "resolved target is not an object",
		}
	}

	components := rawutil.EnsureMap(w.root, "components")
	sectionMap := rawutil.EnsureMap(components, section)
	// The entry may already hold a component under this name. When that
	// entry is the referencing node itself (an aliasing component about to
	// be replaced) the name can be reused; otherwise pick a fresh one.
	localName := naming.Unique(name, func(candidate string) bool {
		existing, taken := sectionMap[candidate]
		return taken && !reflect.DeepEqual(existing, node)
	})
	localRef := "#/components/" + section + "/" + localName

	w.localized[target.Key()] = localRef
	copied := rawutil.CopyMap(resolvedMap)
	sectionMap[localName] = copied
	rewriteToRef(node, localRef)

	return w.walk(copied, target.FilePath, target.Pointer, depth+1)
}

// rewriteToRef replaces node's content with a bare internal reference.
func rewriteToRef(node map[string]any, ref string) {
	for key := range node {
		delete(node, key)
	}
	node["$ref"] = ref
}

// splitComponentPointer splits a pointer of the form
// /components/<section>/<name> into its section and component name.
func splitComponentPointer(ptr string) (section, name string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	if len(parts) != 3 || parts[0] != "components" {
		return "", "", false
	}
	return parts[1], unescapeJSONPointer(parts[2]), true
}

// spliceChain renders the splice stack plus the closing edge for a
// CircularReferenceError.
func spliceChain(stack []resolver.SourceLocation, from, target resolver.SourceLocation) []string {
	out := make([]string, 0, len(stack)+2)
	for _, loc := range stack {
		out = append(out, loc.String())
	}
	out = append(out, from.String(), target.String())
	return out
}

// escapeJSONPointer escapes a token per RFC 6901 for diagnostics.
func escapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	token = strings.ReplaceAll(token, "/", "~1")
	return token
}

// unescapeJSONPointer reverses RFC 6901 token escaping.
func unescapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
