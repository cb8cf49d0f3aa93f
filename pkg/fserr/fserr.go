package fserr

import (
	"errors"
	"fmt"
)

// Error codes returned by the vault services. There is no transport layer
// in this module, so codes stand on their own instead of mapping to HTTP
// statuses.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeUnsupported      = "UNSUPPORTED"
	CodeStale            = "STALE"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodePartialFailure   = "PARTIAL_FAILURE"
	CodeBadRequest       = "BAD_REQUEST"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func New(code string, message string, details string) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// From wraps an underlying error so errors.Is/As keep working through the
// typed result.
func From(code string, message string, details string, cause error) *Error {
	return &Error{Code: code, Message: message, Details: details, cause: cause}
}

// CodeOf extracts the error code, or empty when err is not a vault error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ""
}
