package issuance

import "errors"

// Error taxonomy for issuance operations. Repositories wrap their misses in
// ErrNotFound so the engine and the HTTP layer can classify failures with
// errors.Is without knowing the storage backend.
var (
	// ErrInvalidArgument marks a malformed or missing required field. It is
	// returned before any store access happens.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a lookup miss for a book, copy, loan or user.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an exclusivity violation: the copy is already held
	// by another open loan.
	ErrConflict = errors.New("conflict")
)
