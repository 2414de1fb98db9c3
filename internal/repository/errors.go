package repository

import "errors"

var (
	// ErrNotFound is returned by mutations referencing an unknown task or
	// category. Callers at the boundary treat it as a stale reference, not
	// a fault.
	ErrNotFound = errors.New("not found")

	// ErrEmptyName rejects category names that trim to nothing.
	ErrEmptyName = errors.New("category name is empty")

	// ErrDuplicateName rejects categories colliding case-insensitively
	// with an existing one.
	ErrDuplicateName = errors.New("category already exists")

	// ErrInvalidStatus rejects status values outside the board columns.
	ErrInvalidStatus = errors.New("invalid status")
)
