package rental

import (
	"errors"
	"sort"
	"strings"
)

// Error kinds returned by the Engine. Callers tell them apart with errors.Is;
// the returned errors wrap these with request-specific detail.
var (
	ErrNotFound       = errors.New("not found")
	ErrUnavailable    = errors.New("book unavailable")
	ErrInvalidRequest = errors.New("invalid request")
	ErrConflict       = errors.New("conflict")
)

// ValidationError carries field-level failures. It matches ErrInvalidRequest.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + e.Errors[field]
	}
	return ErrInvalidRequest.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}
