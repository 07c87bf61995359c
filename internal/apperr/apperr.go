// Package apperr defines the tagged error variants produced at the HTTP
// boundary. Callers branch on Kind instead of probing response shapes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a client-facing failure.
type Kind string

const (
	// KindAuth covers invalid credentials, expired or missing tokens and
	// refresh failures. Triggers logout and a return to the login boundary.
	KindAuth Kind = "AUTH"
	// KindNetwork covers transient transport failures; bounded retries apply.
	KindNetwork Kind = "NETWORK"
	// KindDataFormat covers malformed backend payloads (non-array question
	// responses, missing fields). Surfaced to the user with a retry offer.
	KindDataFormat Kind = "DATA_FORMAT"
)

// Error is the single error type crossing the HTTP boundary.
type Error struct {
	Kind       Kind
	StatusCode int // zero when no HTTP response was received
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Auth builds an authentication error.
func Auth(statusCode int, message string) *Error {
	return &Error{Kind: KindAuth, StatusCode: statusCode, Message: message}
}

// Network wraps a transport-level failure.
func Network(message string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Err: err}
}

// DataFormat marks a malformed backend payload.
func DataFormat(message string, err error) *Error {
	return &Error{Kind: KindDataFormat, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain, or "" if the chain holds
// no *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }
