package domain

import "errors"

var (
	// ErrCredentialInvalid covers both an unknown username and a wrong
	// password so callers cannot enumerate accounts.
	ErrCredentialInvalid = errors.New("invalid credentials")
	ErrPrincipalNotFound = errors.New("user not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrUsernameConflict  = errors.New("username already in use")

	ErrContentNotFound = errors.New("content not found")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTooManyAttempts = errors.New("too many failed login attempts")
)
