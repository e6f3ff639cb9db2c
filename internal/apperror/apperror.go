// Package apperror defines the error kinds shared by the approval workflow
// and the receipt ingestion pipeline.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error. Kinds are comparable with errors.Is.
type Kind string

func (k Kind) Error() string { return string(k) }

// Error kinds surfaced to callers.
const (
	NotFound             Kind = "not_found"
	InvalidTransition    Kind = "invalid_transition"
	Unauthorized         Kind = "unauthorized"
	Forbidden            Kind = "forbidden"
	ValidationError      Kind = "validation_error"
	Conflict             Kind = "conflict"
	UpstreamError        Kind = "upstream_error"
	Timeout              Kind = "timeout"
	ExtractionFailed     Kind = "extraction_failed"
	UnsupportedFormat    Kind = "unsupported_format"
	MalformedModelOutput Kind = "malformed_model_output"
	EmptyResponse        Kind = "empty_response"
	InvalidDate          Kind = "invalid_date"
)

// Error is a kinded error with a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsRetryable reports whether the failure is transient.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case Timeout, Conflict:
		return true
	default:
		return false
	}
}
