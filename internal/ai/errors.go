package ai

import (
	"errors"
	"fmt"
)

// ErrMissingCredential means no usable API key is configured. Callers show a
// configuration hint instead of a retry prompt.
var ErrMissingCredential = errors.New("ai credential missing")

// ErrInvalidResult is wrapped when a provider answers with output that does
// not fit the result type.
var ErrInvalidResult = errors.New("invalid ai result")

// RemoteError is a network, timeout or provider failure.
type RemoteError struct {
	Op     string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("ai %s: http status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("ai %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Remote wraps err as a *RemoteError unless it is already classified.
func Remote(op string, status int, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMissingCredential) {
		return err
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &RemoteError{Op: op, Status: status, Err: err}
}
