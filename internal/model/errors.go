package model

import "errors"

var (
	// Record related errors
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("name already in use")

	// Operation related errors
	ErrInvalidOperation = errors.New("invalid operation")
	ErrPartialFailure   = errors.New("operation partially applied")

	// Undo related errors
	ErrUnsupported = errors.New("action cannot be undone")
	ErrStale       = errors.New("audit entry no longer matches current state")

	// Store related errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrBlobNotFound     = errors.New("blob not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
