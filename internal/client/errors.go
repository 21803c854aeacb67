package client

import (
	"errors"
	"fmt"
)

// ErrNoResponse means the backend answered 200 with neither "response" nor "error".
var ErrNoResponse = errors.New("no valid response received from backend")

// StatusError is a non-200 reply from the backend.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Backend error: %d", e.StatusCode)
}

// BackendError carries the backend's own "error" message.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string { return e.Message }

// TransportError covers connection failures and undecodable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
