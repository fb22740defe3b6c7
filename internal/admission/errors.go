package admission

import "errors"

var (
	// ErrEmptySubmitter is returned when a request carries no submitter id.
	ErrEmptySubmitter = errors.New("submitter id cannot be empty")

	// ErrUnknownRequest is returned when the request id is neither active nor queued.
	ErrUnknownRequest = errors.New("request is not tracked by the admission controller")
)
