// Package common defines shared constants and sentinel errors used across
// repositories, services and transports. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors.
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")

	// Device session errors.
	ErrDeviceConflict    = errors.New("account is already logged in on another device")
	ErrDeviceMismatch    = errors.New("token was issued to another device")
	ErrSessionClosed     = errors.New("session is closed")
	ErrSessionOverridden = errors.New("session was replaced by a newer login")

	// Library errors.
	ErrNoActiveGames = errors.New("you have no active games")

	// Payment errors.
	ErrDuplicateTransaction = errors.New("duplicate transaction")
)

// ValidationError describes a rejected request. Fields maps a request field
// to the reason it was rejected. It matches ErrorValidation with errors.Is.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// NewValidationError builds a ValidationError for a single field. An empty
// field produces an error without field details.
func NewValidationError(field, reason string) *ValidationError {
	v := &ValidationError{Message: reason}
	if field != "" {
		v.Fields = map[string]string{field: reason}
	}
	return v
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}
