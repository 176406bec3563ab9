// Package repository defines error types reused across multiple
// repositories.  These sentinel values let handlers distinguish failure
// scenarios: ErrForbidden means the caller does not own the resource it is
// operating on, while ErrConflict signals that dependent records block the
// operation (e.g. deleting an event that already has bookings).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else.  Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")
