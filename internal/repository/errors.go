// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto stable HTTP error codes.  For example, ErrCapacityExceeded
// means a join lost the race for the last open slot, while ErrConflict
// surfaces a storage-level constraint violation such as a concurrent
// duplicate join.
package repository

import "errors"

// ErrEventNotFound indicates that no event row matches the requested ID.
var ErrEventNotFound = errors.New("event not found")

// ErrUserNotFound indicates that no user row matches the requested ID.
var ErrUserNotFound = errors.New("user not found")

// ErrCapacityExceeded is returned when a join cannot proceed because
// current_players already equals max_players.  The conditional update
// that produces it is the only authority on capacity; handlers must not
// pre-judge fullness from a stale read.
var ErrCapacityExceeded = errors.New("event is full")

// ErrNotParticipating is returned when a leave finds no participation
// row for the caller.
var ErrNotParticipating = errors.New("not participating in this event")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a mutation trips a storage constraint,
// e.g. two concurrent joins inserting the same (event_id, user_id)
// pair.  Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
