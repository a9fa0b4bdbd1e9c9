package notifier

import "errors"

var (
	// ErrInvalidPayload is returned when a delivery request cannot be
	// parsed. Such messages are dropped, never requeued.
	ErrInvalidPayload = errors.New("invalid delivery payload")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
