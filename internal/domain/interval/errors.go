package interval

import "errors"

var (
	// ErrIntervalNotFound indicates the interval doesn't exist.
	ErrIntervalNotFound = errors.New("interval not found")
	// ErrInvalidRange indicates an end time before the start time.
	ErrInvalidRange = errors.New("interval end precedes start")
)
