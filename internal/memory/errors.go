package memory

import (
	"errors"
	"fmt"
)

// ErrBatchTooLarge is returned before any request is sent when an append
// exceeds MaxMessagesPerRequest.
var ErrBatchTooLarge = errors.New("message batch exceeds service limit")

// ErrRejected classifies 4xx responses that are neither not-found nor
// already-exists.
var ErrRejected = errors.New("request rejected")

// ServiceError describes a failed memory-service call. Kind is one of the
// sentinel classifications (sentinel.ErrNotFound, sentinel.ErrConflict,
// sentinel.ErrUnavailable, ErrRejected) and participates in errors.Is.
type ServiceError struct {
	Op         string
	StatusCode int
	Body       string
	Kind       error
	Cause      error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("memory %s", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
