package service

import "errors"

// Service-level sentinel errors, mapped to HTTP status codes by the API
// layer.
var (
	// ErrTaskNotRetryable indicates a retry was requested for a task that
	// is not in FAILED state.
	ErrTaskNotRetryable = errors.New("task is not in a retryable state")

	// ErrInvalidCredentials indicates a failed admin login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
