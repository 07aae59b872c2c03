package dao

import "errors"

// Common DAO errors; callers match them with errors.Is.
var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("dao: not found")

	// ErrNilEntity is returned when the caller attempts to persist a nil
	// pointer.
	ErrNilEntity = errors.New("dao: nil entity")
)
