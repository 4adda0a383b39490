// Package repository contains data access logic separated from HTTP
// handlers. This file defines error values and helpers reused across the
// repositories. Sentinel values let higher layers distinguish failure
// scenarios: ErrConflict signals that an operation cannot proceed because of
// existing dependent rows (e.g. deleting a customer who still has repair
// jobs), while the per-field duplicates report uniqueness violations.
package repository

import (
	"errors"
	"strings"
)

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state. Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// Uniqueness violations, named after the conflicting field so the API can
// report which one collided.
var (
	ErrEmailExists        = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrRegistrationExists = errors.New("registration already exists")
	ErrStatusNameExists   = errors.New("status name already exists")
)

// isDuplicate reports whether err is a MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isRestricted reports whether err is a MySQL foreign-key restriction
// (1451: cannot delete a parent row while children reference it).
func isRestricted(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1451")
}
