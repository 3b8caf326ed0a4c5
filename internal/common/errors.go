// Package common defines the sentinel errors shared across the server
// layers. Callers should use errors.Is to match these values; anything
// not matching them is an opaque backend failure wrapped with %w.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRegistrationClosed = errors.New("registration closed")
	ErrUsernameTaken      = errors.New("username already taken")
)
