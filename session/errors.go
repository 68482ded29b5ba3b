package session

import (
	"errors"
	"fmt"
)

var (
	// ErrLoginRejected is matched by every *LoginError.
	ErrLoginRejected = errors.New("login rejected")
	// ErrStorageUnavailable is returned when a successful login cannot be persisted.
	ErrStorageUnavailable = errors.New("credential storage unavailable")
)

// LoginError carries the message shown to the user after a rejected login. Message is the
// server's "error" field or the generic fallback.
type LoginError struct {
	Message string
	Status  int
	Err     error
}

func (e *LoginError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("login rejected (status %d): %s", e.Status, e.Message)
	}
	return "login rejected: " + e.Message
}

// Unwrap exposes ErrLoginRejected and the underlying cause.
func (e *LoginError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLoginRejected}
	}
	return []error{ErrLoginRejected, e.Err}
}
