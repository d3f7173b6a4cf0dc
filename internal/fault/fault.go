// Package fault defines the classified error taxonomy shared by the journey
// engine, the generation gateway, and the HTTP surface.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and for the transport layer's
// status-code mapping.
type Kind string

const (
	// KindNotFound: a session or character referenced by id does not exist.
	KindNotFound Kind = "not_found"
	// KindInvalidInput: a required transition input field is missing or malformed.
	KindInvalidInput Kind = "invalid_input"
	// KindInvalidState: a transition was attempted from a state with no handler.
	KindInvalidState Kind = "invalid_state"
	// KindGatewayTransient: a retryable backend failure. Retried internally;
	// callers only see it wrapped as KindGatewayExhausted.
	KindGatewayTransient Kind = "gateway_transient"
	// KindGatewayExhausted: retries were exhausted on transient failures.
	KindGatewayExhausted Kind = "gateway_exhausted"
	// KindGatewayFatal: a non-retryable backend failure.
	KindGatewayFatal Kind = "gateway_fatal"
	// KindDecode: a structured response failed to parse as the expected shape.
	KindDecode Kind = "decode_error"
)

// Error is a classified error. Field is set for KindInvalidInput.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound reports a missing entity.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// InvalidInput reports a missing or malformed input field by name.
func InvalidInput(field string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Message: fmt.Sprintf("%s is required", field),
		Field:   field,
	}
}

// KindOf returns the classification of err, or empty string for
// unclassified errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
