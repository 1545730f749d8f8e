package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"

	// Identity provider outcomes surfaced to the dashboard
	CodeProviderRejected     Code = "provider_rejected"     // Provider refused the call (bad code, taken email, ...)
	CodeProviderUnavailable  Code = "provider_unavailable"  // Provider unreachable or failing fast
	CodeIncompleteFlow       Code = "incomplete_flow"       // Provider returned a non-terminal status
	CodeUnsupported          Code = "unsupported"           // Flow requires a step this service does not drive (2FA)
	CodeConfirmationRequired Code = "confirmation_required" // Destructive action submitted without explicit confirmation
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error

	// Fields carries per-field messages for validation failures.
	Fields map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// NewValidation creates a validation error carrying per-field messages.
// The message is the first field message in fieldOrder, if any.
func NewValidation(fields map[string]string, fieldOrder ...string) error {
	msg := "invalid request"
	for _, f := range fieldOrder {
		if m, ok := fields[f]; ok {
			msg = m
			break
		}
	}
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err, Fields: existing.Fields}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error in the chain,
// or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// FieldsOf returns the per-field messages attached to err, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
