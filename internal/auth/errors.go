package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced user, document or token is absent.
	ErrNotFound = errors.New("auth: not found")
	// ErrConflict indicates a unique constraint violation (username/email).
	ErrConflict = errors.New("auth: already exists")
	// ErrInvalidInput indicates field-level input rejection.
	ErrInvalidInput = errors.New("auth: invalid input")
	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords so login failures are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	// ErrInvalidToken indicates a token failed signature, expiry, type or
	// subject validation.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrInactive indicates the account exists but is deactivated.
	ErrInactive = errors.New("auth: account is inactive")
	// ErrForbidden indicates the actor lacks the required role or permission.
	ErrForbidden = errors.New("auth: access denied")
)

// ValidationError carries the field that failed validation so the boundary
// layer can return a safe detail map.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("auth: invalid %s: %s", e.Field, e.Reason)
}

// Is makes ValidationError match ErrInvalidInput in errors.Is chains.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
