package task

import "errors"

var (
	// ErrInvalidTag indicates an empty or malformed tag.
	ErrInvalidTag = errors.New("invalid tag")
	// ErrDuplicateTag indicates the tag already exists and is visible.
	ErrDuplicateTag = errors.New("tag already exists")
	// ErrTagNotFound indicates the tag isn't recorded or isn't hidden.
	ErrTagNotFound = errors.New("tag not found")
)
