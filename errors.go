package reservy

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check.
var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrTimeout       = errors.New("tool execution timeout")
	ErrValidation    = errors.New("validation failed")
	ErrShutdown      = errors.New("registry is shutting down")
	ErrNotFound      = errors.New("not found")
	ErrUpstream      = errors.New("upstream request failed")
	ErrNotConfigured = errors.New("not configured")
)

// ClientError is an error whose Reason is safe to show to the caller
// (bad date, unknown reservation, geocoding miss, upstream failure).
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	// Retryable marks transient failures (provider timeout, rate limit). Nothing
	// retries automatically; callers may surface it.
	Retryable bool
	Err       error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (store down, panic, marshal failure).
// The caller never sees the underlying message.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// Invalid reports bad caller input (ErrValidation).
func Invalid(format string, args ...any) error {
	return &ClientError{Reason: fmt.Sprintf(format, args...), Err: ErrValidation}
}

// NotFound reports a lookup miss (ErrNotFound).
func NotFound(format string, args ...any) error {
	return &ClientError{Reason: fmt.Sprintf(format, args...), Err: ErrNotFound}
}

// Upstream reports a failed or timed-out provider call (ErrUpstream).
func Upstream(format string, args ...any) error {
	return &ClientError{Reason: fmt.Sprintf(format, args...), Retryable: true, Err: ErrUpstream}
}

// NotConfigured reports missing configuration such as an absent API key (ErrNotConfigured).
func NotConfigured(format string, args ...any) error {
	return &ClientError{Reason: fmt.Sprintf(format, args...), Err: ErrNotConfigured}
}

func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error(), Err: ErrValidation}
}
