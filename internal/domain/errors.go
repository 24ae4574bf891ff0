package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for generation operations
var (
	// ErrEmptyPrompt indicates the prompt was empty after trimming
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrSuperseded indicates a newer operation started before this one settled
	ErrSuperseded = errors.New("operation superseded by a newer one")

	// ErrResourceNotFound indicates a session resource does not exist
	ErrResourceNotFound = errors.New("session resource not found")
)

// ValidationError is a local input failure. No network call was made.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// RemoteRejection means the endpoint answered with a non-success status.
// Body holds the diagnostic text the endpoint returned.
type RemoteRejection struct {
	StatusCode int
	Body       string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("remote rejected request (status %d): %s", e.StatusCode, e.Body)
}

// TransportFailure means the request or the body read itself failed.
type TransportFailure struct {
	Op  string
	Err error
}

func (e *TransportFailure) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportFailure) Unwrap() error { return e.Err }
