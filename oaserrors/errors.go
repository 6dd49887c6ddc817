// Package oaserrors provides structured error types for oasfold.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between different categories
// of errors and implement appropriate recovery strategies.
//
// # Error Categories
//
//   - ReferenceResolutionError: $ref target file or fragment not found
//   - CircularReferenceError: a reference cycle was detected during resolution
//   - InvalidSpecError: input fails basic OpenAPI structural validation
//   - ResourceLimitError: resource exhaustion (depth, size, count limits)
//   - ConfigError: invalid configuration or input options
//
// # Usage with errors.As
//
//	doc, err := b.Bundle(ctx, "api.yaml")
//	if err != nil {
//	    var circErr *oaserrors.CircularReferenceError
//	    if errors.As(err, &circErr) {
//	        // circErr.Chain holds the full reference chain
//	    }
//	}
package oaserrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrCircularReference indicates a circular $ref was detected.
	ErrCircularReference = errors.New("circular reference")

	// ErrInvalidSpec indicates a structurally invalid input document.
	ErrInvalidSpec = errors.New("invalid spec")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ReferenceResolutionError represents a failure to resolve a $ref.
// This includes missing external files and missing fragments within
// otherwise loadable documents.
type ReferenceResolutionError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// RefType indicates the reference type: "internal" or "external"
	RefType string
	// SourceFile is the document that contained the failing reference
	SourceFile string
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceResolutionError) Error() string {
	msg := "reference error"
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.SourceFile != "" {
		msg += " (referenced from " + e.SourceFile + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceResolutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ReferenceResolutionError) Is(target error) bool {
	return target == ErrReference
}

// CircularReferenceError represents a reference cycle detected during
// resolution. Chain holds every location visited before the cycle closed,
// in resolution order, so the full loop can be diagnosed.
type CircularReferenceError struct {
	// Ref is the reference whose resolution closed the cycle
	Ref string
	// Chain is the ordered list of locations in the resolution chain,
	// ending with the location that recurred
	Chain []string
}

// Error returns a human-readable error message naming the full chain.
func (e *CircularReferenceError) Error() string {
	msg := "circular reference"
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if len(e.Chain) > 0 {
		msg += " (chain: " + strings.Join(e.Chain, " -> ") + ")"
	}
	return msg
}

// Unwrap returns nil as CircularReferenceError has no underlying cause.
func (e *CircularReferenceError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
// Matches both ErrCircularReference and the broader ErrReference.
func (e *CircularReferenceError) Is(target error) bool {
	return target == ErrCircularReference || target == ErrReference
}

// InvalidSpecError represents an input that fails basic OpenAPI structural
// validation prior to resolution (wrong/missing openapi version, no paths).
type InvalidSpecError struct {
	// Path is the file path or source identifier of the invalid document
	Path string
	// Field is the field that failed validation (e.g. "openapi", "paths")
	Field string
	// Message describes the validation failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *InvalidSpecError) Error() string {
	msg := "invalid spec"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Field != "" {
		msg += ": field '" + e.Field + "'"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *InvalidSpecError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *InvalidSpecError) Is(target error) bool {
	return target == ErrInvalidSpec
}

// ResourceLimitError represents a resource exhaustion condition.
// This occurs when loading or resolution exceeds configured limits.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded
	// Common values: "ref_depth", "cached_documents", "file_size"
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
	// Actual is the value that exceeded the limit (may be 0 if unknown)
	Actual int64
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d", e.Limit)
		if e.Actual > 0 {
			msg += fmt.Sprintf(", actual: %d", e.Actual)
		}
		msg += ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns nil as ResourceLimitError has no underlying cause.
func (e *ResourceLimitError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
