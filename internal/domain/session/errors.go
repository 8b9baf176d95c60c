package session

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist in the store.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotRunning indicates the tracker actor loop is not running.
	ErrNotRunning = errors.New("tracker not running")
	// ErrSessionInactive indicates a restore target that is not active.
	ErrSessionInactive = errors.New("session is not active")
	// ErrInvalidInput indicates invalid tracking parameters.
	ErrInvalidInput = errors.New("invalid tracking input")
)
