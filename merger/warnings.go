package merger

import (
	"fmt"
	"strings"

	"github.com/oasfold/oasfold/internal/severity"
)

// WarningCategory identifies the type of warning.
type WarningCategory string

const (
	// WarnSchemaIncompatible indicates a schema collision could not be merged
	// and was resolved by renaming the later schema.
	WarnSchemaIncompatible WarningCategory = "schema_incompatible"
	// WarnParameterConflict indicates the same (name, in) parameter differs
	// in attributes across merged specs; the earlier definition was kept.
	WarnParameterConflict WarningCategory = "parameter_conflict"
	// WarnMediaTypeConflict indicates the same media type carries differing
	// schemas across merged specs; the earlier schema was kept.
	WarnMediaTypeConflict WarningCategory = "media_type_conflict"
	// WarnComponentKeptFirst indicates a named component collision resolved
	// by keeping the first document's definition.
	WarnComponentKeptFirst WarningCategory = "component_kept_first"
	// WarnPropertyOverride indicates a later spec replaced a property with a
	// differing shape during a compatible schema merge.
	WarnPropertyOverride WarningCategory = "property_override"
	// WarnHeaderDeduplicated indicates equivalent header parameters were
	// collapsed into one shared component.
	WarnHeaderDeduplicated WarningCategory = "header_deduplicated"
)

// Warning is a structured, non-fatal diagnostic produced during merging.
// Warnings never abort the pipeline; they are collected and returned
// alongside the aggregate document.
type Warning struct {
	// Category identifies the type of warning.
	Category WarningCategory
	// Path is the JSON path to the affected element.
	Path string
	// Message is a human-readable description.
	Message string
	// Source is the title of the spec that triggered the warning.
	Source string
	// Severity indicates warning severity.
	Severity severity.Severity
	// Context provides additional details.
	Context map[string]any
}

// String returns the formatted warning message.
func (w *Warning) String() string {
	return w.Message
}

// newSchemaRenamedWarning records an incompatible schema collision resolved
// by rename.
func newSchemaRenamedWarning(name, newName, source string) *Warning {
	return &Warning{
		Category: WarnSchemaIncompatible,
		Path:     "components.schemas." + name,
		Message:  fmt.Sprintf("schema '%s' from %s is incompatible with the existing definition; renamed to '%s'", name, source, newName),
		Source:   source,
		Severity: severity.SeverityWarning,
		Context: map[string]any{
			"original_name": name,
			"new_name":      newName,
		},
	}
}

// newParameterConflictWarning records a (name, in) parameter that differs in
// attributes across specs.
func newParameterConflictWarning(path, method, name, in, source string) *Warning {
	location := path
	jsonPath := fmt.Sprintf("paths.%s.parameters.%s", path, name)
	if method != "" {
		location = strings.ToUpper(method) + " " + path
		jsonPath = fmt.Sprintf("paths.%s.%s.parameters.%s", path, method, name)
	}
	return &Warning{
		Category: WarnParameterConflict,
		Path:     jsonPath,
		Message:  fmt.Sprintf("parameter '%s' (in: %s) of %s differs in %s; kept the earlier definition", name, in, location, source),
		Source:   source,
		Severity: severity.SeverityWarning,
		Context: map[string]any{
			"name": name,
			"in":   in,
		},
	}
}

// newMediaTypeConflictWarning records a media type whose schema differs
// across specs.
func newMediaTypeConflictWarning(jsonPath, mediaType, source string) *Warning {
	return &Warning{
		Category: WarnMediaTypeConflict,
		Path:     jsonPath,
		Message:  fmt.Sprintf("media type '%s' at %s differs in %s; kept the earlier schema", mediaType, jsonPath, source),
		Source:   source,
		Severity: severity.SeverityWarning,
		Context: map[string]any{
			"media_type": mediaType,
		},
	}
}

// newComponentKeptFirstWarning records a named component collision resolved
// by first-document precedence.
func newComponentKeptFirstWarning(section, name, source string) *Warning {
	return &Warning{
		Category: WarnComponentKeptFirst,
		Path:     section + "." + name,
		Message:  fmt.Sprintf("%s '%s' already defined; kept the earlier definition over the one from %s", section, name, source),
		Source:   source,
		Severity: severity.SeverityInfo,
		Context: map[string]any{
			"section": section,
		},
	}
}

// newPropertyOverrideWarning records a property replaced with a differing
// shape during a compatible schema merge.
func newPropertyOverrideWarning(schema, property, source string) *Warning {
	return &Warning{
		Category: WarnPropertyOverride,
		Path:     fmt.Sprintf("components.schemas.%s.properties.%s", schema, property),
		Message:  fmt.Sprintf("property '%s' of schema '%s' replaced by a differing shape from %s", property, schema, source),
		Source:   source,
		Severity: severity.SeverityInfo,
		Context: map[string]any{
			"schema":   schema,
			"property": property,
		},
	}
}

// newHeaderDeduplicatedWarning records header parameters collapsed into a
// shared component.
func newHeaderDeduplicatedWarning(name, component string, occurrences int) *Warning {
	return &Warning{
		Category: WarnHeaderDeduplicated,
		Path:     "components.parameters." + component,
		Message:  fmt.Sprintf("header parameter '%s' deduplicated into components.parameters.%s (%d occurrences)", name, component, occurrences),
		Severity: severity.SeverityInfo,
		Context: map[string]any{
			"name":        name,
			"occurrences": occurrences,
		},
	}
}

// Warnings is a collection of Warning.
type Warnings []*Warning

// Strings returns the formatted messages.
func (ws Warnings) Strings() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}

// ByCategory filters warnings by category.
func (ws Warnings) ByCategory(cat WarningCategory) Warnings {
	var out Warnings
	for _, w := range ws {
		if w.Category == cat {
			out = append(out, w)
		}
	}
	return out
}

// Summary returns a formatted multi-line summary of warnings.
func (ws Warnings) Summary() string {
	if len(ws) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d warning(s):\n", len(ws)))
	for _, w := range ws {
		sb.WriteString("  - ")
		sb.WriteString(w.String())
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
