package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrCodeInvalid               ErrorCode = "INVALID"
	ErrCodeInvalidTransition     ErrorCode = "INVALID_TRANSITION"
	ErrCodeDependencyFailure     ErrorCode = "DEPENDENCY_FAILURE"
	ErrCodeSuggestionUnavailable ErrorCode = "SUGGESTION_UNAVAILABLE"
	ErrCodeUnauthorized          ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal              ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound          = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound          = NewError(ErrCodeNotFound, "task not found")
	ErrProfileNotFound       = NewError(ErrCodeNotFound, "profile not found")
	ErrUnauthorized          = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload        = NewError(ErrCodeInvalid, "invalid payload")
	ErrSuggestionUnavailable = NewError(ErrCodeSuggestionUnavailable, "no suggestion available")
)

// TransitionError names a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s → %s", e.From, e.To)
}

// NewTransitionError classifies a rejected status change.
func NewTransitionError(from, to Status) *Error {
	message := "invalid status transition"
	switch {
	case from == StatusCompleted && to == StatusCompleted:
		message = "task already completed"
	case from == StatusStarted && to == StatusStarted:
		message = "task already started"
	}
	return WrapError(ErrCodeInvalidTransition, message, &TransitionError{From: from, To: to})
}

// NewValidationError reports caller misuse of a field.
func NewValidationError(format string, args ...any) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf(format, args...))
}

// NewDependencyError reports a store failure after rollback.
func NewDependencyError(message string, err error) *Error {
	return WrapError(ErrCodeDependencyFailure, message, err)
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsCallerError reports errors that indicate misuse and must not be retried.
func IsCallerError(err error) bool {
	var dErr *Error
	if !errors.As(err, &dErr) {
		return false
	}
	switch dErr.Code {
	case ErrCodeNotFound, ErrCodeInvalid, ErrCodeInvalidTransition, ErrCodeUnauthorized:
		return true
	default:
		return false
	}
}
