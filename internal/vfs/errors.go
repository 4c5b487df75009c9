package vfs

import (
	"errors"
	"fmt"
)

// Store operation errors.
var (
	// ErrEmptyPath is returned when a path normalizes to nothing.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrNotFound is returned when the target entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the destination is occupied.
	ErrConflict = errors.New("conflict")

	// ErrTypeMismatch is returned when a file operation targets a directory or vice versa.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrCycle is returned when a directory would be moved into itself.
	ErrCycle = errors.New("cannot move a directory into its own subdirectory")

	// ErrReservedPath is returned for mutations of the conversation log file.
	// It matches ErrConflict.
	ErrReservedPath = fmt.Errorf("%w: path is reserved", ErrConflict)
)
