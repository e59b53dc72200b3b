package tracker

import "errors"

var (
	// ErrAlreadyRunning indicates a session is active for another task.
	ErrAlreadyRunning = errors.New("another task is already being tracked")
)
