package session

import (
	"errors"

	"github.com/meridian-crm/meridian/internal/shared"
)

// AuthError is a credential failure surfaced to the caller for display. It
// never crashes the session state machine.
type AuthError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Well-known auth error codes.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailTaken         = "email_taken"
	CodeProviderError      = "provider_error"
)

// wrapAuthError converts a credential-provider error into a typed AuthError
// with a human-readable message.
func wrapAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		return &AuthError{Code: CodeInvalidCredentials, Message: "Invalid email or password", Err: err}
	case errors.Is(err, shared.ErrEmailTaken):
		return &AuthError{Code: CodeEmailTaken, Message: "An account with this email already exists", Err: err}
	default:
		return &AuthError{Code: CodeProviderError, Message: "Authentication service unavailable, try again later", Err: err}
	}
}
