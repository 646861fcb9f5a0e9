package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Closed error taxonomy for everything the SDK surfaces. Raw HTTP error
// shapes are decoded exactly once, at the client boundary; nothing past this
// package inspects response bodies.

// ValidationError reports missing or malformed local input. It is raised
// before any remote call is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// PermissionError reports a failed local authorization pre-check. The remote
// side re-validates independently; this is a UX affordance, not a security
// boundary.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

// RemoteError wraps any non-2xx HTTP response (or a transport failure, with
// Status 0). Message is shown verbatim when the backend supplied one.
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Data    json.RawMessage
	cause   error
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error: %s", e.Message)
	}
	return fmt.Sprintf("remote error (%d): %s", e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.cause }

// SessionInvalidError is returned when a 401 with a recognized error code
// forced a session invalidation. Unlike RemoteError it carries a side
// effect: the stored credential has already been cleared and subscribers
// notified.
type SessionInvalidError struct {
	Code    string
	Message string
}

func (e *SessionInvalidError) Error() string {
	return fmt.Sprintf("session invalid (%s): %s", e.Code, e.Message)
}

// IsValidation reports whether err is a local input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPermissionDenied reports whether err is a local authorization rejection.
func IsPermissionDenied(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsSessionInvalid reports whether err carried a forced logout.
func IsSessionInvalid(err error) bool {
	var se *SessionInvalidError
	return errors.As(err, &se)
}
