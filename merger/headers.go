package merger

import (
	"sort"

	"github.com/oasfold/oasfold/internal/naming"
	"github.com/oasfold/oasfold/internal/rawutil"
)

// headerTracker counts structurally equivalent header parameters as source
// documents are folded in. Equivalence is by canonical signature, so the
// same header declared twice with different key order or in different
// source files still counts as one shape. Parameters that appear at least
// twice across the sources are later extracted into shared components.
type headerTracker struct {
	counts map[string]int
	names  map[string]string
}

func newHeaderTracker() *headerTracker {
	return &headerTracker{
		counts: make(map[string]int),
		names:  make(map[string]string),
	}
}

// recordParams registers every header parameter in params, resolving local
// component references against the owning document's root.
func (t *headerTracker) recordParams(params []any, root map[string]any) {
	for _, p := range params {
		m, name := headerParam(p, root)
		if m == nil {
			continue
		}
		sig := canonicalize(m, root)
		t.counts[sig]++
		t.names[sig] = name
	}
}

// headerParam returns the resolved parameter map and its name when p is a
// header parameter, following one level of local reference. Non-header
// parameters and unresolvable references return nil.
func headerParam(p any, root map[string]any) (map[string]any, string) {
	m, ok := p.(map[string]any)
	if !ok {
		return nil, ""
	}
	if ref := rawutil.Ref(m); ref != "" {
		resolved, ok := lookupLocalRef(root, ref).(map[string]any)
		if !ok {
			return nil, ""
		}
		m = resolved
	}
	if rawutil.GetString(m, "in") != "header" {
		return nil, ""
	}
	return m, rawutil.GetString(m, "name")
}

// dedupHeaders extracts header parameters recorded at least twice into
// components.parameters and rewrites every inline occurrence in the
// aggregate to reference the shared component.
func dedupHeaders(agg map[string]any, tracker *headerTracker) Warnings {
	paths := rawutil.GetMap(agg, "paths")
	if paths == nil {
		return nil
	}

	// Reuse component parameters the fold already produced when an
	// identical shape exists there. Sorted order keeps the canonical pick
	// stable when several components carry the same shape.
	componentFor := make(map[string]string)
	parameters := rawutil.GetMap(rawutil.GetMap(agg, "components"), "parameters")
	for _, name := range sortedKeys(parameters) {
		sig := canonicalize(parameters[name], agg)
		if _, ok := componentFor[sig]; !ok {
			componentFor[sig] = name
		}
	}

	var warnings Warnings
	extract := func(params []any) {
		for i, p := range params {
			m, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if ref := rawutil.Ref(m); ref != "" {
				// Referenced parameters from different sources may name
				// identical shapes under different components; point them
				// all at the canonical one.
				resolved, ok := lookupLocalRef(agg, ref).(map[string]any)
				if !ok || rawutil.GetString(resolved, "in") != "header" {
					continue
				}
				sig := canonicalize(resolved, agg)
				if tracker.counts[sig] < 2 {
					continue
				}
				if compName, ok := componentFor[sig]; ok && parameterRefPrefix+compName != ref {
					params[i] = map[string]any{"$ref": parameterRefPrefix + compName}
				}
				continue
			}
			if rawutil.GetString(m, "in") != "header" {
				continue
			}
			sig := canonicalize(m, agg)
			if tracker.counts[sig] < 2 {
				continue
			}
			compName, ok := componentFor[sig]
			if !ok {
				components := rawutil.EnsureMap(agg, "components")
				parameters := rawutil.EnsureMap(components, "parameters")
				compName = naming.Unique(tracker.names[sig], func(candidate string) bool {
					_, taken := parameters[candidate]
					return taken
				})
				parameters[compName] = rawutil.DeepCopy(m)
				componentFor[sig] = compName
				warnings = append(warnings, newHeaderDeduplicatedWarning(tracker.names[sig], compName, tracker.counts[sig]))
			}
			params[i] = map[string]any{"$ref": parameterRefPrefix + compName}
		}
	}

	pathKeys := make([]string, 0, len(paths))
	for path := range paths {
		pathKeys = append(pathKeys, path)
	}
	sort.Strings(pathKeys)

	for _, path := range pathKeys {
		item, ok := paths[path].(map[string]any)
		if !ok {
			continue
		}
		if params := rawutil.GetSlice(item, "parameters"); params != nil {
			extract(params)
		}
		for _, method := range httpMethods {
			op, ok := item[method].(map[string]any)
			if !ok {
				continue
			}
			if params := rawutil.GetSlice(op, "parameters"); params != nil {
				extract(params)
			}
		}
	}

	// Components that duplicate the canonical shape and lost their last
	// reference during the rewrite above are dropped.
	parameters = rawutil.GetMap(rawutil.GetMap(agg, "components"), "parameters")
	for _, name := range sortedKeys(parameters) {
		sig := canonicalize(parameters[name], agg)
		canonical := componentFor[sig]
		if canonical == "" || canonical == name || tracker.counts[sig] < 2 {
			continue
		}
		if refCount(agg, parameterRefPrefix+name) > 0 {
			continue
		}
		delete(parameters, name)
		warnings = append(warnings, newHeaderDeduplicatedWarning(tracker.names[sig], canonical, tracker.counts[sig]))
	}
	return warnings
}

// refCount counts occurrences of an exact $ref value anywhere in node.
func refCount(node any, target string) int {
	n := 0
	switch v := node.(type) {
	case map[string]any:
		if rawutil.Ref(v) == target {
			n++
		}
		for _, val := range v {
			n += refCount(val, target)
		}
	case []any:
		for _, item := range v {
			n += refCount(item, target)
		}
	}
	return n
}
