package service

import "errors"

// Service errors callers may check with errors.Is. The API layer maps them to
// HTTP status codes.
var (
	// ErrMissingSubmitter indicates a request arrived without a submitter id.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrMissingSubmitter = errors.New("submitter id is required")

	// ErrNotAdmitted indicates the caller gave up before admission.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrNotAdmitted = errors.New("request was not admitted")
)

// GenerationError wraps unexpected failures of the generation service.
type GenerationError struct {
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return "generation service " + e.Operation + " failed: " + e.Err.Error()
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GenerationError) Unwrap() error {
	return e.Err
}
