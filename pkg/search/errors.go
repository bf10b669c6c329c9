package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries field-level detail for a rejected request.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// NewValidationError creates an empty validation error.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: make(map[string]string)}
}

// Add records a field-level problem. The first problem per field wins.
func (v *ValidationError) Add(field, problem string) {
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = problem
	}
}

// HasErrors reports whether any field problem was recorded.
func (v *ValidationError) HasErrors() bool { return len(v.Fields) > 0 }

func (v *ValidationError) Error() string {
	if len(v.Fields) == 0 {
		return v.Message
	}
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v.Fields[k]))
	}
	return v.Message + " (" + strings.Join(parts, "; ") + ")"
}

// AsValidationError unwraps err as a *ValidationError if possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
