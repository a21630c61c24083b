package store

import "errors"

// Sentinel errors returned by store operations.
var (
	// ErrNotFound is returned when no entry matches an identifier.
	// Recoverable: the CLI reports it without failing the process.
	ErrNotFound = errors.New("stash entry not found")

	// ErrInvalidID is returned for malformed identifiers or names.
	// Fatal to the command that received the input.
	ErrInvalidID = errors.New("invalid stash identifier")
)
