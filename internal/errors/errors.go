package errors

import (
	stderrors "errors"
)

type ErrorType string

const (
	ErrorTypeNotInitialized   ErrorType = "NOT_INITIALIZED"
	ErrorTypeNotFound         ErrorType = "NOT_FOUND"
	ErrorTypeInvalidName      ErrorType = "INVALID_NAME"
	ErrorTypeEmptyStagingArea ErrorType = "EMPTY_STAGING_AREA"
	ErrorTypeNoCommits        ErrorType = "NO_COMMITS"
	ErrorTypeCorrupted        ErrorType = "CORRUPTED"
	ErrorTypeConflict         ErrorType = "CONFLICT"
	ErrorTypeInternal         ErrorType = "INTERNAL"
)

// Error is the core's structural failure. Code is the process exit code the
// CLI maps the failure to. Soft conditions (already exists, cannot delete
// current branch, ...) are notices, not Errors.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details any       `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func NotInitialized() *Error {
	return &Error{
		Type:    ErrorTypeNotInitialized,
		Message: "repository not initialized, run 'delta init' first",
		Code:    3,
	}
}

// NotRepository reports a path that exists but carries no repository
// marker, e.g. the source argument of clone.
func NotRepository(path string) *Error {
	return &Error{
		Type:    ErrorTypeNotInitialized,
		Message: "not a delta repository: " + path,
		Code:    3,
	}
}

func NotFound(message string) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    4,
	}
}

func InvalidName(message string) *Error {
	return &Error{
		Type:    ErrorTypeInvalidName,
		Message: message,
		Code:    5,
	}
}

func EmptyStagingArea() *Error {
	return &Error{
		Type:    ErrorTypeEmptyStagingArea,
		Message: "no changes staged for commit",
		Code:    6,
	}
}

func NoCommits() *Error {
	return &Error{
		Type:    ErrorTypeNoCommits,
		Message: "no commits found in the repository",
		Code:    7,
	}
}

func Corrupted(message string, details any) *Error {
	return &Error{
		Type:    ErrorTypeCorrupted,
		Message: message,
		Code:    8,
		Details: details,
	}
}

func Conflict(message string) *Error {
	return &Error{
		Type:    ErrorTypeConflict,
		Message: message,
		Code:    9,
	}
}

func Internal(message string) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Message: message,
		Code:    1,
	}
}

// IsKind reports whether err (or anything it wraps) is a typed Error of the
// given kind.
func IsKind(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// ExitCode extracts the CLI exit code for err, defaulting to 1 for plain
// errors.
func ExitCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 1
}
