// Package repository implements the data access layer over MySQL. It
// defines sentinel error values reused across repositories so that the
// ledger and handlers can distinguish failure scenarios without string
// matching: ErrForbidden marks ownership violations, the *NotFound
// values mark missing rows (soft-deleted rows count as missing), and
// ErrDuplicateTableName surfaces the per-event unique constraint on
// table names.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrEventNotFound is returned when an event does not exist or has been
// soft-deleted.
var ErrEventNotFound = errors.New("event not found")

// ErrInvitationNotFound is returned when an invitation does not exist.
// A structurally valid QR token referencing a missing invitation maps
// here: it is normal state drift (stale QR), not tampering.
var ErrInvitationNotFound = errors.New("invitation not found")

// ErrTableNotFound is returned when a table does not exist within the
// requested event.
var ErrTableNotFound = errors.New("table not found")

// ErrTerminalNotFound is returned when no terminal with the given code
// is registered on the event.
var ErrTerminalNotFound = errors.New("terminal not found")

// ErrDuplicateTableName is returned when creating or renaming a table
// would violate the per-event unique name constraint.
var ErrDuplicateTableName = errors.New("duplicate table name")
