package merger

// Provenance extensions recording which source specs contributed to the
// aggregate. The document-level extension lives on info and lists every
// source; the operation-level extension lists the titles that contributed
// to that operation, in input order.
const (
	// ExtAggregatedFrom is the provenance extension key.
	ExtAggregatedFrom = "x-aggregated-from"
)

// annotateOperation appends source to the operation's provenance list,
// skipping duplicates.
func annotateOperation(op map[string]any, source string) {
	existing, _ := op[ExtAggregatedFrom].([]any)
	for _, s := range existing {
		if s == source {
			return
		}
	}
	op[ExtAggregatedFrom] = append(existing, source)
}

// annotateInfo records the title and version of every source spec on the
// aggregate's info object.
func annotateInfo(info map[string]any, sources []sourceInfo) {
	entries := make([]any, 0, len(sources))
	for _, src := range sources {
		entries = append(entries, map[string]any{
			"title":   src.Title,
			"version": src.Version,
		})
	}
	info[ExtAggregatedFrom] = entries
}

// sourceInfo identifies one source spec for provenance purposes.
type sourceInfo struct {
	Title   string
	Version string
}
