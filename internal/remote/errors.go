package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnreachable wraps transport failures. The sync engine treats it as
	// a signal to enter offline mode rather than a delivery failure.
	ErrUnreachable = errors.New("service unreachable")

	// ErrUnsupportedVersion is reported when the service refuses this agent
	// version outright (HTTP 426). No further sync attempts make sense.
	ErrUnsupportedVersion = errors.New("app version no longer supported")

	// ErrConcurrentSession is reported when another device already holds the
	// active session for this account.
	ErrConcurrentSession = errors.New("concurrent session detected")

	// ErrInvalidOperation is reported when the service permanently rejects a
	// mutation, e.g. a screenshot create for an unknown session.
	ErrInvalidOperation = errors.New("invalid operation")
)

const (
	codeConcurrentSession = "CONCURRENT_SESSION_DETECTED"
	codeInvalidOperation  = "INVALID_OPERATION"
)

// APIError is a non-2xx response decoded from the service's error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	// DeviceID identifies the device holding the session on a concurrent
	// session conflict, letting callers tell self-conflicts apart.
	DeviceID string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is maps the error envelope onto the package sentinels for errors.Is
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnsupportedVersion:
		return e.StatusCode == http.StatusUpgradeRequired
	case ErrConcurrentSession:
		return e.StatusCode == http.StatusConflict && e.Code == codeConcurrentSession
	case ErrInvalidOperation:
		return e.StatusCode == http.StatusBadRequest && e.Code == codeInvalidOperation
	}
	return false
}

// Retryable reports whether a delivery failure is worth another attempt.
// Server-side errors and throttling are, other 4xx responses are not.
func Retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
}
