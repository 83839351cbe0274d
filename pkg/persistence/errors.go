// Package persistence provides standardized error types for session storage.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound indicates no session exists for the given identifier.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionInactive indicates a deactivated session was loaded for execution.
	ErrSessionInactive = errors.New("session inactive")
)

// SessionError wraps session storage errors with operation context.
type SessionError struct {
	Op        string // Operation being performed (e.g., "Save", "SessionByID")
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s operation failed for session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func (e *SessionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewSessionError creates a session error with context.
func NewSessionError(op, sessionID string, err error) *SessionError {
	return &SessionError{
		Op:        op,
		SessionID: sessionID,
		Err:       err,
	}
}

// IsSessionNotFound checks if an error indicates a missing session.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// IsSessionInactive checks if an error indicates a deactivated session.
func IsSessionInactive(err error) bool {
	return errors.Is(err, ErrSessionInactive)
}
