// Package domain provides canonical error types shared across the webhook
// pipeline. Handlers translate these into HTTP responses; everything below
// the HTTP boundary returns them (or wraps them) instead of raw status codes.
package domain

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of a pipeline error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid event body,
	// or a failed overflow-content fetch (treated as a caller problem).
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeAuthentication indicates a signature, timestamp, or
	// unknown-tenant failure.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypeServer indicates an internal failure while processing an
	// otherwise valid event.
	ErrorTypeServer ErrorType = "server"
)

// PipelineError is a canonical error that carries enough information for the
// webhook handler to produce the right HTTP response without leaking internal
// detail to the sender.
type PipelineError struct {
	// Type is the category of error.
	Type ErrorType `json:"type"`

	// Message is the short, sender-safe description.
	Message string `json:"message"`

	// Field is the event field that caused the error, if applicable.
	Field string `json:"field,omitempty"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the HTTP status code for this error.
func (e *PipelineError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ErrInvalidRequest creates an invalid-request error.
func ErrInvalidRequest(message string) *PipelineError {
	return &PipelineError{Type: ErrorTypeInvalidRequest, Message: message}
}

// ErrAuthentication creates an authentication error. The same message is used
// for stale timestamps and bad signatures so the response does not reveal
// which check failed.
func ErrAuthentication(message string) *PipelineError {
	return &PipelineError{Type: ErrorTypeAuthentication, Message: message}
}

// ErrServer creates an internal server error.
func ErrServer(message string) *PipelineError {
	return &PipelineError{Type: ErrorTypeServer, Message: message}
}

// WithField attaches the offending field name to the error.
func (e *PipelineError) WithField(field string) *PipelineError {
	e.Field = field
	return e
}
