package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("goal", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("an account with this email already exists"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid email or password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Upstream wraps ErrUpstream",
			err:       Upstream("google sign-in is not configured"),
			target:    ErrUpstream,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("goal", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("goal", "abc123"),
			wantMessage: "goal not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name: "ValidationErrors joins per-field messages",
			err: ValidationErrors([]FieldError{
				{Field: "email", Message: "email is required"},
				{Field: "password", Message: "password is too short"},
			}),
			wantMessage: "email is required, password is too short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("goal", "abc123")
	if err.Unwrap() != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), ErrNotFound)
	}
}

func TestValidationFields(t *testing.T) {
	// Handlers forward Fields so the frontend knows WHICH input was invalid.
	err := ValidationFailed("email", "invalid email format")

	if len(err.Fields) != 1 || err.Fields[0].Field != "email" {
		t.Errorf("Fields = %+v, want one entry for email", err.Fields)
	}
}
