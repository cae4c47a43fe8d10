package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Uniform login failure: unknown identifier, wrong password and role mismatch
	// must not be distinguishable by the caller
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Uniform refresh failure: absent, revoked and expired tokens look the same
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Access token missing, malformed, badly signed or expired
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	ErrCastNotFound      = errors.New("cast not found")
	ErrCastAlreadyExists = errors.New("cast already exists for this user")
)

// ValidationError is returned when input is structurally invalid.
// It is raised before any storage lookup happens.
type ValidationError struct {
	// Field name -> human readable message
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}
