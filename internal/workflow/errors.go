// Package workflow implements the repair-job lifecycle: who may create,
// mutate and delete jobs and notes, and which fields each path may touch.
// Storage is reached through the narrow interfaces declared in this package
// so the rules can be exercised without a database.
package workflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when the targeted job or note does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the acting user is denied by the
// authorization policy. Handlers translate it into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports missing or referentially invalid input with
// per-field detail. It aggregates every violated constraint so the caller
// can show them all at once.
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
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// fieldErrors collects violations and produces a *ValidationError only when
// at least one field failed.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) { f[field] = msg }

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
