package listing

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound         = errors.New("listing not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("authentication required")
	ErrCategoryNotFound = errors.New("category not found")
	// ErrUnknownCategory means a stored key has no registry entry, which is a
	// configuration error rather than bad user input.
	ErrUnknownCategory = errors.New("unknown category key")
)

// ValidationError lists the rejected fields of a submitted listing, keyed by
// the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid listing: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
