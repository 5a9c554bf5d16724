package core

import "errors"

// Common errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyID      = errors.New("id cannot be empty")
	ErrReadOnly     = errors.New("repository is in read-only mode")
	ErrNotWatchable = errors.New("repository does not support watching")
)
