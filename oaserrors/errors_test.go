package oaserrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceResolutionError(t *testing.T) {
	cause := errors.New("no such file")
	err := &ReferenceResolutionError{
		Ref:        "./missing.yaml#/components/schemas/Pet",
		RefType:    "external",
		SourceFile: "api.yaml",
		Cause:      cause,
	}

	assert.Contains(t, err.Error(), "./missing.yaml#/components/schemas/Pet")
	assert.Contains(t, err.Error(), "api.yaml")
	assert.True(t, errors.Is(err, ErrReference))
	assert.False(t, errors.Is(err, ErrCircularReference))
	assert.Equal(t, cause, errors.Unwrap(err))

	var refErr *ReferenceResolutionError
	wrapped := fmt.Errorf("bundling failed: %w", err)
	assert.True(t, errors.As(wrapped, &refErr))
	assert.Equal(t, "external", refErr.RefType)
}

func TestCircularReferenceError(t *testing.T) {
	err := &CircularReferenceError{
		Ref: "b.yaml#/components/schemas/B",
		Chain: []string{
			"a.yaml#/components/schemas/A",
			"b.yaml#/components/schemas/B",
			"a.yaml#/components/schemas/A",
		},
	}

	assert.Contains(t, err.Error(), "circular reference")
	assert.Contains(t, err.Error(), "a.yaml#/components/schemas/A -> b.yaml#/components/schemas/B -> a.yaml#/components/schemas/A")
	// A circular reference is also a reference error.
	assert.True(t, errors.Is(err, ErrCircularReference))
	assert.True(t, errors.Is(err, ErrReference))
	assert.Nil(t, errors.Unwrap(err))
}

func TestInvalidSpecError(t *testing.T) {
	err := &InvalidSpecError{
		Path:    "swagger.yaml",
		Field:   "openapi",
		Message: "document is not OpenAPI 3.x",
	}

	assert.Contains(t, err.Error(), "swagger.yaml")
	assert.Contains(t, err.Error(), "openapi")
	assert.True(t, errors.Is(err, ErrInvalidSpec))
	assert.False(t, errors.Is(err, ErrReference))
}

func TestResourceLimitError(t *testing.T) {
	err := &ResourceLimitError{
		ResourceType: "file_size",
		Limit:        10 * 1024 * 1024,
		Actual:       20 * 1024 * 1024,
		Message:      "external file too large",
	}

	assert.Contains(t, err.Error(), "file_size")
	assert.Contains(t, err.Error(), "limit: 10485760")
	assert.True(t, errors.Is(err, ErrResourceLimit))
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Option:  "WithParallelism",
		Value:   -1,
		Message: "must be positive",
	}

	assert.Contains(t, err.Error(), "WithParallelism")
	assert.Contains(t, err.Error(), "value: -1")
	assert.True(t, errors.Is(err, ErrConfig))
}
