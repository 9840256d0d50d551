package inspector

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL marks a missing, malformed or non-HTTP(S) target.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrUnreachable marks DNS or connection failures.
	ErrUnreachable = errors.New("host unreachable")
	// ErrRejectedStatus marks a response whose status was not accepted.
	ErrRejectedStatus = errors.New("rejected response status")
	// ErrBlockedTarget marks a host the configured policy refuses to fetch.
	ErrBlockedTarget = errors.New("target host not allowed")
)

// StatusError carries the rejected status of a fetch.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status code %d", e.URL, e.StatusCode)
}

// Unwrap lets errors.Is match ErrRejectedStatus.
func (e *StatusError) Unwrap() error {
	return ErrRejectedStatus
}
