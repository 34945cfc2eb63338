package threads

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFoundOrDenied indicates the target thread does not exist or the
	// caller is not allowed to see it. The two cases are deliberately
	// indistinguishable so that existence is never leaked across tenants.
	ErrNotFoundOrDenied = errors.New("thread not found or access denied")

	// ErrInvalidArgument indicates a required argument was missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedModel indicates the adapter does not handle the model.
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrUnknownModel indicates the model name is not part of the schema.
	ErrUnknownModel = errors.New("unknown model")

	// ErrTableNotFound indicates a mapped table is absent from the live schema.
	ErrTableNotFound = errors.New("table not found")

	// ErrRequiredFieldMissing indicates a required column is absent from a table.
	ErrRequiredFieldMissing = errors.New("required field missing")

	// ErrCannotRetrieveCreated indicates an insert succeeded but the created
	// row cannot be read back (no RETURNING support and no known id).
	ErrCannotRetrieveCreated = errors.New("cannot retrieve created record")
)

// ErrorCode classifies SDK errors.
type ErrorCode string

const (
	// ErrCodeConfiguration marks construction-time misconfiguration. Fatal.
	ErrCodeConfiguration ErrorCode = "configuration"

	// ErrCodeValidation marks caller-supplied input that fails validation.
	ErrCodeValidation ErrorCode = "validation"

	// ErrCodeNotFound marks a missing (or forbidden) resource.
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeBackend marks a transport or driver failure. Never retried here.
	ErrCodeBackend ErrorCode = "backend"
)

// Error is a coded SDK error wrapping an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// NewError creates a coded error.
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(message string, err error) *Error {
	return NewError(ErrCodeConfiguration, message, err)
}

// NewValidationError creates a validation error.
func NewValidationError(message string, err error) *Error {
	return NewError(ErrCodeValidation, message, err)
}

// NewBackendError creates a backend error.
func NewBackendError(message string, err error) *Error {
	return NewError(ErrCodeBackend, message, err)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeValidation
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConfiguration
}
