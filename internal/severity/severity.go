// Package severity provides severity level constants for diagnostics
// reported by the merger and aggregator packages.
//
// The severity levels are ordered from least to most severe:
// Info < Warning < Error
package severity

// Severity indicates the severity level of a diagnostic produced while
// bundling or merging documents.
type Severity int

const (
	// SeverityError indicates a condition that makes a document unusable.
	// Fatal conditions are reported as errors, not diagnostics, so this
	// level only appears when a caller downgrades an error to a diagnostic.
	SeverityError Severity = iota

	// SeverityWarning indicates a policy decision that may change meaning,
	// such as an attribute conflict resolved by precedence.
	SeverityWarning

	// SeverityInfo indicates informational notices about processing choices,
	// such as a schema rename or a deduplicated header component.
	SeverityInfo
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}
