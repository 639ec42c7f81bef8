package api

import (
	"errors"
	"fmt"
)

// ErrValidation is returned when a required input is missing. No network call is made.
var ErrValidation = errors.New("validation error")

// NetworkError reports a transport failure or a non-success HTTP status.
type NetworkError struct {
	Op     string // endpoint name
	Status int    // HTTP status, 0 on transport failure
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ApplicationError reports a success status carrying an error payload ({"error": "..."}).
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Validation wraps ErrValidation with a reason.
func Validation(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}
