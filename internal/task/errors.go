package task

import "errors"

var (
	// ErrSchedulerStopped is returned by Enqueue and Start after Stop.
	ErrSchedulerStopped = errors.New("scheduler is stopped")

	// ErrEmptySubmitter is returned when a spec carries no submitter id.
	ErrEmptySubmitter = errors.New("submitter id cannot be empty")

	// ErrInvalidMaxAttempts is returned for a negative attempt budget.
	ErrInvalidMaxAttempts = errors.New("max attempts cannot be negative")

	// ErrGeneratorPanic wraps a panic raised inside a generator.
	ErrGeneratorPanic = errors.New("generator panicked")

	// ErrInvalidResult is returned when a generator produced unusable content.
	ErrInvalidResult = errors.New("generator returned an invalid result")
)
