package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the operation is not allowed in the resource's
// current lifecycle state (posted transaction, draft document, already reversed).
var ErrConflict = errors.New("operation conflicts with resource state")

// ErrPeriodClosed indicates that the fiscal period covering the requested date
// is closed for the relevant module, or that no period covers the date.
var ErrPeriodClosed = errors.New("fiscal period is closed")

// ErrLimitExceeded indicates that an application would drive a source's or
// target's remaining balance below zero.
var ErrLimitExceeded = errors.New("amount exceeds the remaining balance")

// ErrSignMismatch indicates a document total whose sign contradicts its type.
var ErrSignMismatch = errors.New("amount sign does not match document type")

// ErrSignIncompatible indicates an application between a source and a target of
// incompatible signs.
var ErrSignIncompatible = errors.New("source and target signs are incompatible")

// ErrConcurrency indicates that lock contention exhausted the configured retries.
// Callers may retry the whole operation; no partial writes were made.
var ErrConcurrency = errors.New("concurrent update conflict")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError wraps a lower-level error with a stable code and a caller-facing message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates an AppError that unwraps to ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
