// Package apperror defines the application's error taxonomy.
//
// Services return these typed errors; the HTTP layer maps them to status
// codes. Sentinel errors (ErrNotFound etc.) are checked with errors.Is, and
// the *AppError wrapper carries the human-readable message (and, for
// validation failures, the per-field breakdown) via errors.As.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream unavailable")
)

// FieldError pinpoints a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the concrete error type services return.
type AppError struct {
	Err     error        // sentinel category (ErrNotFound, ErrValidation, ...)
	Message string       // human-readable error message
	Fields  []FieldError // populated for validation errors only
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound is returned both for truly absent records and for records owned by
// a different user — callers must not be able to tell the difference.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports a single invalid field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// ValidationErrors reports multiple invalid fields in one error. The message
// joins the per-field messages so logs stay readable without unpacking Fields.
func ValidationErrors(fields []FieldError) *AppError {
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f.Message
	}
	return &AppError{
		Err:     ErrValidation,
		Message: strings.Join(msgs, ", "),
		Fields:  fields,
	}
}

// Conflict reports a uniqueness violation (e.g. duplicate email).
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized reports a missing, invalid, or expired credential.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream reports a failure in an external collaborator (identity provider,
// mail transport). The detail is for server-side logs; handlers surface only
// a generic message.
func Upstream(message string) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
	}
}
