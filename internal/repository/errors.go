package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation failed")

	// ErrDuplicate is returned when a uniqueness constraint fails
	ErrDuplicate = errors.New("already exists")

	// ErrBackendUnavailable is returned when the backing store or external
	// tool is unreachable or times out
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrCommandFailed is returned when an external command exits non-zero
	// or produces unparsable output
	ErrCommandFailed = errors.New("backend command failed")

	// ErrPersistence is returned when a local read or write fails
	ErrPersistence = errors.New("persistence failure")

	// ErrUnsupported is returned when a backing strategy cannot serve
	// the requested operation
	ErrUnsupported = errors.New("not supported by backend")
)
