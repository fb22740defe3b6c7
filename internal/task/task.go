package task

import (
	"time"

	"github.com/phrazzld/coursegen/internal/domain"
)

// Status represents the current state of a task
type Status string

// Possible task status values
const (
	StatusQueued         Status = "queued"
	StatusInFlight       Status = "in_flight"
	StatusRetryScheduled Status = "retry_scheduled"
	StatusFallback       Status = "fallback"
	StatusSucceeded      Status = "succeeded"
)

// Source tells where the content of an outcome came from.
type Source string

// Content sources.
const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
	SourceEmergency Source = "emergency"
)

// Spec describes work to enqueue.
type Spec struct {
	SubmitterID string
	Payload     domain.Payload

	// Priority zero means medium.
	Priority domain.Priority

	// MaxAttempts zero means the scheduler default.
	MaxAttempts int
}

// Task is a unit of generation work owned by a Scheduler.
type Task struct {
	// ID has the form <kind>_<submitter>_<unixMillis>_<8 hex chars>.
	ID          string
	SubmitterID string
	Payload     domain.Payload
	Priority    domain.Priority
	Attempts    int
	MaxAttempts int

	CreatedAt time.Time
	// ScheduledAt is the earliest time the next attempt may start.
	ScheduledAt time.Time

	Status    Status
	LastError error

	handle *Handle
}

// Kind returns the generation kind of the task payload.
func (t *Task) Kind() domain.Kind {
	return t.Payload.Kind()
}

// QueueID implements queue.Item.
func (t *Task) QueueID() string { return t.ID }

// QueuePriority implements queue.Item.
func (t *Task) QueuePriority() domain.Priority { return t.Priority }

// snapshot returns a copy that is safe to hand out while the scheduler keeps
// mutating the original.
func (t *Task) snapshot() *Task {
	c := *t
	c.handle = nil
	return &c
}

// Outcome is the resolution of a task.
type Outcome struct {
	TaskID   string
	Kind     domain.Kind
	Result   domain.Result
	Source   Source
	Attempts int

	// Duration is the time from enqueue to resolution.
	Duration time.Duration

	// LastError is the last generation error, nil when the content was generated
	// on the first attempt.
	LastError error
}

// Degraded reports whether the content did not come from the generator.
func (o Outcome) Degraded() bool {
	return o.Source != SourceGenerated
}
