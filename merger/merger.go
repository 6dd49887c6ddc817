// Package merger folds multiple bundled OpenAPI documents into a single
// aggregate specification. Documents are merged strictly in input order:
// the first document wins ties, later documents extend the aggregate with
// new paths, operations, and components. Collisions are decided by a pure
// conflict-resolution policy, recorded as structured warnings, and never
// abort the merge.
package merger

import (
	"fmt"
	"sort"

	"github.com/oasfold/oasfold/bundler"
	"github.com/oasfold/oasfold/internal/naming"
	"github.com/oasfold/oasfold/internal/rawutil"
	"github.com/oasfold/oasfold/loader"
	"github.com/oasfold/oasfold/oaserrors"
)

var httpMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// componentSections are the named component sections merged by name with
// first-document precedence. Schemas are handled separately because they
// participate in compatibility merging and renaming.
var componentSections = []string{"parameters", "responses", "requestBodies", "headers", "securitySchemes", "examples", "links"}

// Config controls how documents are merged.
type Config struct {
	// AggregateTitle overrides the title of the merged document. Empty
	// uses the first document's title.
	AggregateTitle string
	// AggregateVersion overrides the version of the merged document.
	// Empty uses the first document's version.
	AggregateVersion string
	// Policy overrides the default conflict resolution.
	Policy Policy
	// Logger receives merge diagnostics. Nil disables logging.
	Logger loader.Logger
}

// Result holds the merged document and everything observed while merging.
type Result struct {
	// Document is the aggregate specification as a raw tree.
	Document map[string]any
	// Title is the aggregate document's title.
	Title string
	// Warnings are the non-fatal diagnostics collected during the merge.
	Warnings Warnings
	// SchemaRenames counts schemas renamed due to incompatible collisions.
	SchemaRenames int
	// MergedOperations counts operations that existed in more than one
	// source document and were merged in place.
	MergedOperations int
	// HeaderComponents counts shared header parameters extracted into
	// components.parameters.
	HeaderComponents int
}

// Merger combines bundled documents according to its configuration.
// A Merger is stateless across calls and safe to reuse.
type Merger struct {
	config Config
	logger loader.Logger
}

// New creates a Merger with the given configuration.
func New(config Config) *Merger {
	logger := config.Logger
	if logger == nil {
		logger = loader.NopLogger{}
	}
	return &Merger{config: config, logger: logger}
}

// Merge folds docs into one aggregate document, in order. The inputs are
// never modified; every contributed subtree is deep-copied first.
func (m *Merger) Merge(docs []*bundler.ResolvedDocument) (*Result, error) {
	if len(docs) == 0 {
		return nil, &oaserrors.ConfigError{
			Option:  "documents",
			Message: "at least one resolved document is required",
		}
	}

	title := m.config.AggregateTitle
	if title == "" {
		title = docs[0].Title
	}
	version := m.config.AggregateVersion
	if version == "" {
		version = docs[0].Version
	}
	if version == "" {
		version = "1.0.0"
	}

	info := map[string]any{
		"title":   title,
		"version": version,
	}
	agg := map[string]any{
		"openapi": docs[0].OpenAPI,
		"info":    info,
		"paths":   map[string]any{},
	}

	st := &mergeState{
		merger:           m,
		agg:              agg,
		tracker:          newHeaderTracker(),
		schemaSources:    make(map[string]string),
		componentSources: make(map[string]string),
	}

	sources := make([]sourceInfo, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, sourceInfo{Title: doc.Title, Version: doc.Version})
		st.fold(doc)
	}

	if len(docs) > 1 {
		annotateInfo(info, sources)
	}

	headerWarnings := dedupHeaders(agg, st.tracker)
	st.warnings = append(st.warnings, headerWarnings...)

	m.logger.Info("merge complete",
		"documents", len(docs),
		"warnings", len(st.warnings),
		"schema_renames", st.schemaRenames,
		"merged_operations", st.mergedOperations)

	return &Result{
		Document:         agg,
		Title:            title,
		Warnings:         st.warnings,
		SchemaRenames:    st.schemaRenames,
		MergedOperations: st.mergedOperations,
		HeaderComponents: len(headerWarnings),
	}, nil
}

// mergeState carries the aggregate and bookkeeping across the fold.
type mergeState struct {
	merger           *Merger
	agg              map[string]any
	tracker          *headerTracker
	warnings         Warnings
	schemaSources    map[string]string
	componentSources map[string]string
	schemaRenames    int
	mergedOperations int
}

func (st *mergeState) warn(w *Warning) {
	st.warnings = append(st.warnings, w)
	st.merger.logger.Debug("merge warning", "category", string(w.Category), "message", w.Message)
}

// fold merges one document into the aggregate. The document's tree is
// deep-copied so rename rewrites never touch the caller's copy.
func (st *mergeState) fold(doc *bundler.ResolvedDocument) {
	source := doc.Title
	work := rawutil.CopyMap(doc.Root)
	st.foldSchemas(work, source)
	st.foldComponents(work, source)
	st.foldTopLevel(work)
	st.foldPaths(work, source)
}

// foldSchemas merges the incoming document's schemas. Collisions are
// decided up front so renames can be rewritten across the entire incoming
// document before any of its content reaches the aggregate.
func (st *mergeState) foldSchemas(work map[string]any, source string) {
	docSchemas := rawutil.GetMap(rawutil.GetMap(work, "components"), "schemas")
	if len(docSchemas) == 0 {
		return
	}
	aggSchemas := rawutil.EnsureMap(rawutil.EnsureMap(st.agg, "components"), "schemas")

	rewriter := newRefRewriter()
	suffix := naming.SanitizeIdentifier(source)
	mergeNames := make(map[string]bool)
	renamed := make(map[string]string)
	chosen := make(map[string]bool)

	for _, name := range sortedKeys(docSchemas) {
		existing, collides := aggSchemas[name]
		if !collides {
			continue
		}
		incoming := docSchemas[name]
		if sameShape(existing, st.agg, incoming, work) {
			mergeNames[name] = true
			continue
		}
		conflict := Conflict{
			Kind:       ConflictSchema,
			Identity:   name,
			Sources:    []string{st.schemaSources[name], source},
			Compatible: SchemasCompatible(existing, incoming),
		}
		switch ResolveConflict(conflict, st.merger.config.Policy) {
		case ActionMergeInPlace:
			mergeNames[name] = true
		case ActionRenameAndKeepBoth:
			newName := naming.Unique(name+"_"+suffix, func(candidate string) bool {
				if _, taken := aggSchemas[candidate]; taken {
					return true
				}
				if _, taken := docSchemas[candidate]; taken {
					return true
				}
				return chosen[candidate]
			})
			renamed[name] = newName
			chosen[newName] = true
			rewriter.registerSchemaRename(name, newName)
			st.warn(newSchemaRenamedWarning(name, newName, source))
		case ActionPreferFirst:
			st.warn(newComponentKeptFirstWarning("components.schemas", name, source))
			delete(docSchemas, name)
		}
	}

	if !rewriter.empty() {
		for oldName, newName := range renamed {
			docSchemas[newName] = docSchemas[oldName]
			delete(docSchemas, oldName)
		}
		rewriter.rewrite(work)
		st.schemaRenames += len(renamed)
	}

	for _, name := range sortedKeys(docSchemas) {
		incoming := docSchemas[name]
		if existing, collides := aggSchemas[name]; collides {
			if mergeNames[name] {
				st.mergeSchemaInPlace(existing, incoming, name, source)
			}
			continue
		}
		aggSchemas[name] = incoming
		st.schemaSources[name] = source
	}
}

// mergeSchemaInPlace combines a compatible incoming schema into the
// aggregate's definition. Object schemas union their properties, with the
// later document winning on property name collisions, and union their
// required lists. Primitive collisions carry nothing to union, so the
// earlier definition stands.
func (st *mergeState) mergeSchemaInPlace(into, from any, name, source string) {
	intoMap, ok := into.(map[string]any)
	if !ok {
		return
	}
	fromMap, ok := from.(map[string]any)
	if !ok {
		return
	}
	if kind, _ := ClassifySchema(intoMap); kind != KindObject {
		return
	}

	if fromProps := rawutil.GetMap(fromMap, "properties"); len(fromProps) > 0 {
		intoProps := rawutil.EnsureMap(intoMap, "properties")
		for _, prop := range sortedKeys(fromProps) {
			incoming := fromProps[prop]
			if existing, collides := intoProps[prop]; collides {
				if sameShape(existing, st.agg, incoming, st.agg) {
					continue
				}
				st.warn(newPropertyOverrideWarning(name, prop, source))
			}
			intoProps[prop] = incoming
		}
	}

	if fromReq := rawutil.GetSlice(fromMap, "required"); len(fromReq) > 0 {
		intoReq := rawutil.GetSlice(intoMap, "required")
		seen := make(map[any]bool, len(intoReq))
		for _, r := range intoReq {
			seen[r] = true
		}
		for _, r := range fromReq {
			if !seen[r] {
				intoReq = append(intoReq, r)
				seen[r] = true
			}
		}
		intoMap["required"] = intoReq
	}
}

// foldComponents merges the non-schema component sections by name. The
// first document to define a name wins; a differing later definition is
// dropped with a warning.
func (st *mergeState) foldComponents(work map[string]any, source string) {
	workComponents := rawutil.GetMap(work, "components")
	if workComponents == nil {
		return
	}
	for _, section := range componentSections {
		docSection := rawutil.GetMap(workComponents, section)
		if len(docSection) == 0 {
			continue
		}
		aggSection := rawutil.EnsureMap(rawutil.EnsureMap(st.agg, "components"), section)
		for _, name := range sortedKeys(docSection) {
			key := section + "/" + name
			existing, collides := aggSection[name]
			if !collides {
				aggSection[name] = docSection[name]
				st.componentSources[key] = source
				continue
			}
			if sameShape(existing, st.agg, docSection[name], work) {
				continue
			}
			conflict := Conflict{
				Kind:     ConflictComponent,
				Identity: name,
				Sources:  []string{st.componentSources[key], source},
			}
			if ResolveConflict(conflict, st.merger.config.Policy) == ActionPreferFirst {
				st.warn(newComponentKeptFirstWarning("components."+section, name, source))
			}
		}
	}
}

// foldTopLevel carries servers, security, externalDocs from the first
// document that defines them and unions tags by name.
func (st *mergeState) foldTopLevel(work map[string]any) {
	for _, key := range []string{"servers", "security", "externalDocs"} {
		if _, present := st.agg[key]; present {
			continue
		}
		if v, present := work[key]; present {
			st.agg[key] = v
		}
	}

	workTags := rawutil.GetSlice(work, "tags")
	if len(workTags) == 0 {
		return
	}
	aggTags := rawutil.GetSlice(st.agg, "tags")
	seen := make(map[string]bool, len(aggTags))
	for _, t := range aggTags {
		if m, ok := t.(map[string]any); ok {
			seen[rawutil.GetString(m, "name")] = true
		}
	}
	for _, t := range workTags {
		m, ok := t.(map[string]any)
		if !ok {
			continue
		}
		name := rawutil.GetString(m, "name")
		if seen[name] {
			continue
		}
		aggTags = append(aggTags, t)
		seen[name] = true
	}
	st.agg["tags"] = aggTags
}

// foldPaths merges the incoming document's paths into the aggregate and
// annotates each contributed operation with its source title.
func (st *mergeState) foldPaths(work map[string]any, source string) {
	workPaths := rawutil.GetMap(work, "paths")
	if len(workPaths) == 0 {
		return
	}
	aggPaths := rawutil.EnsureMap(st.agg, "paths")

	for _, path := range sortedKeys(workPaths) {
		item, ok := workPaths[path].(map[string]any)
		if !ok {
			continue
		}
		st.recordHeaders(item, work)

		existingAny, collides := aggPaths[path]
		if !collides {
			aggPaths[path] = item
			for _, method := range httpMethods {
				if op, ok := item[method].(map[string]any); ok {
					annotateOperation(op, source)
				}
			}
			continue
		}
		existing, ok := existingAny.(map[string]any)
		if !ok {
			continue
		}
		st.mergePathItem(existing, item, work, path, source)
	}
}

// recordHeaders registers every header parameter the path item carries so
// the deduplication pass can count structural occurrences across sources.
func (st *mergeState) recordHeaders(item map[string]any, work map[string]any) {
	if params := rawutil.GetSlice(item, "parameters"); len(params) > 0 {
		st.tracker.recordParams(params, work)
	}
	for _, method := range httpMethods {
		op, ok := item[method].(map[string]any)
		if !ok {
			continue
		}
		if params := rawutil.GetSlice(op, "parameters"); len(params) > 0 {
			st.tracker.recordParams(params, work)
		}
	}
}

func (st *mergeState) mergePathItem(into, from, work map[string]any, path, source string) {
	st.unionParameters(into, from, work, path, "", source)

	for _, method := range httpMethods {
		fromOp, ok := from[method].(map[string]any)
		if !ok {
			continue
		}
		intoOp, ok := into[method].(map[string]any)
		if !ok {
			into[method] = fromOp
			annotateOperation(fromOp, source)
			continue
		}
		st.mergeOperation(intoOp, fromOp, work, path, method, source)
	}

	for _, key := range []string{"summary", "description"} {
		if _, present := into[key]; present {
			continue
		}
		if v, present := from[key]; present {
			into[key] = v
		}
	}
}

// mergeOperation combines two definitions of the same (path, method):
// parameters union by (name, in), request body and response content union
// by media type, and scalar fields keep the earlier definition.
func (st *mergeState) mergeOperation(intoOp, fromOp, work map[string]any, path, method, source string) {
	st.mergedOperations++
	st.unionParameters(intoOp, fromOp, work, path, method, source)
	st.mergeRequestBody(intoOp, fromOp, work, path, method, source)
	st.mergeResponses(intoOp, fromOp, work, path, method, source)

	for _, key := range []string{"summary", "description", "operationId", "tags", "deprecated", "security"} {
		if _, present := intoOp[key]; present {
			continue
		}
		if v, present := fromOp[key]; present {
			intoOp[key] = v
		}
	}

	annotateOperation(intoOp, source)
}

// unionParameters merges parameter lists by (name, in) identity. Identical
// duplicates collapse; a duplicate with differing attributes keeps the
// earlier definition and records a warning.
func (st *mergeState) unionParameters(intoHolder, fromHolder, work map[string]any, path, method, source string) {
	fromParams := rawutil.GetSlice(fromHolder, "parameters")
	if len(fromParams) == 0 {
		return
	}
	intoParams := rawutil.GetSlice(intoHolder, "parameters")

	for _, p := range fromParams {
		name, in := parameterIdentity(p, work)
		if name == "" {
			intoParams = append(intoParams, p)
			continue
		}
		match := findParameter(intoParams, st.agg, name, in)
		if match == nil {
			intoParams = append(intoParams, p)
			continue
		}
		if !sameShape(match, st.agg, p, work) {
			st.warn(newParameterConflictWarning(path, method, name, in, source))
		}
	}
	intoHolder["parameters"] = intoParams
}

// parameterIdentity returns the (name, in) of a parameter node, following
// one level of local component reference against the owning document.
func parameterIdentity(p any, root map[string]any) (name, in string) {
	m, ok := p.(map[string]any)
	if !ok {
		return "", ""
	}
	if ref := rawutil.Ref(m); ref != "" {
		resolved, ok := lookupLocalRef(root, ref).(map[string]any)
		if !ok {
			return "", ""
		}
		m = resolved
	}
	return rawutil.GetString(m, "name"), rawutil.GetString(m, "in")
}

// findParameter returns the first parameter in params matching (name, in),
// or nil.
func findParameter(params []any, root map[string]any, name, in string) any {
	for _, p := range params {
		pn, pi := parameterIdentity(p, root)
		if pn == name && pi == in {
			return p
		}
	}
	return nil
}

func (st *mergeState) mergeRequestBody(intoOp, fromOp, work map[string]any, path, method, source string) {
	fromBody := rawutil.GetMap(fromOp, "requestBody")
	if fromBody == nil {
		return
	}
	intoBody := rawutil.GetMap(intoOp, "requestBody")
	if intoBody == nil {
		intoOp["requestBody"] = fromBody
		return
	}
	st.mergeContent(intoBody, fromBody, work, fmt.Sprintf("paths.%s.%s.requestBody", path, method), source)
}

func (st *mergeState) mergeResponses(intoOp, fromOp, work map[string]any, path, method, source string) {
	fromResponses := rawutil.GetMap(fromOp, "responses")
	if len(fromResponses) == 0 {
		return
	}
	intoResponses := rawutil.GetMap(intoOp, "responses")
	if intoResponses == nil {
		intoOp["responses"] = fromResponses
		return
	}

	for _, code := range sortedKeys(fromResponses) {
		existingAny, collides := intoResponses[code]
		if !collides {
			intoResponses[code] = fromResponses[code]
			continue
		}
		existing, ok := existingAny.(map[string]any)
		if !ok {
			continue
		}
		from, ok := fromResponses[code].(map[string]any)
		if !ok {
			continue
		}
		st.mergeContent(existing, from, work, fmt.Sprintf("paths.%s.%s.responses.%s", path, method, code), source)

		if fromHeaders := rawutil.GetMap(from, "headers"); len(fromHeaders) > 0 {
			intoHeaders := rawutil.EnsureMap(existing, "headers")
			for name, h := range fromHeaders {
				if _, present := intoHeaders[name]; !present {
					intoHeaders[name] = h
				}
			}
		}
		if _, present := existing["description"]; !present {
			if d, present := from["description"]; present {
				existing["description"] = d
			}
		}
	}
}

// mergeContent unions media types. A media type present on both sides with
// differing schemas keeps the earlier one and records a warning.
func (st *mergeState) mergeContent(into, from, work map[string]any, jsonPath, source string) {
	fromContent := rawutil.GetMap(from, "content")
	if len(fromContent) == 0 {
		return
	}
	intoContent := rawutil.GetMap(into, "content")
	if intoContent == nil {
		into["content"] = fromContent
		return
	}
	for _, mediaType := range sortedKeys(fromContent) {
		existing, collides := intoContent[mediaType]
		if !collides {
			intoContent[mediaType] = fromContent[mediaType]
			continue
		}
		if !sameShape(existing, st.agg, fromContent[mediaType], work) {
			st.warn(newMediaTypeConflictWarning(jsonPath, mediaType, source))
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
