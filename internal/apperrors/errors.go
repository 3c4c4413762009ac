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

// ErrConflict indicates that the request conflicts with the current state of a resource.
var ErrConflict = errors.New("conflicting resource state")

// ErrForbidden indicates that the caller is not allowed to perform the operation.
var ErrForbidden = errors.New("operation forbidden")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError wraps storage and infrastructure failures so callers can tell
// "fix your data" (the sentinel errors above, wrapped by services) apart from
// "try again" (the commit boundary itself failed).
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

// NewAppError creates an AppError with an HTTP-ish status code, a message and
// an optional underlying cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// IsStorage reports whether err is an infrastructure failure rather than a
// business-rule error.
func IsStorage(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
