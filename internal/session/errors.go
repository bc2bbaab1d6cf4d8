package session

import "errors"

var (
	// ErrSessionNotFound is returned for unknown or evicted session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrBusy is returned when a command would overlap a pending transition.
	ErrBusy = errors.New("session is busy")

	// ErrInvalidSnapshot is returned when persisted data cannot be restored.
	ErrInvalidSnapshot = errors.New("invalid session snapshot")
)
