package admission

import (
	"time"

	"github.com/phrazzld/coursegen/internal/domain"
)

// Request is a unit of admission bookkeeping. It lives either in the active
// set or in the wait queue of a Controller.
type Request struct {
	ID          string
	SubmitterID string
	Kind        domain.Kind
	Priority    domain.Priority
	CreatedAt   time.Time
	Retries     int

	// ActiveSince is set when the request is promoted into the active set.
	ActiveSince time.Time

	// ready is closed when the request becomes active.
	ready chan struct{}
}

// QueueID implements queue.Item.
func (r *Request) QueueID() string { return r.ID }

// QueuePriority implements queue.Item.
func (r *Request) QueuePriority() domain.Priority { return r.Priority }

// Ticket is the answer to a registration.
type Ticket struct {
	RequestID  string
	CanProceed bool

	// Position is the 1-based place in the wait queue; zero when CanProceed.
	Position int

	// WaitTime is an advisory estimate of the time until admission.
	WaitTime time.Duration

	ready <-chan struct{}
}

// Ready returns a channel that is closed once the request is admitted. It is
// already closed when CanProceed is true.
func (t Ticket) Ready() <-chan struct{} {
	return t.ready
}

// FailOutcome reports what FailRequest did with a request.
type FailOutcome int

const (
	// FailUnknown means the id was not in the active set.
	FailUnknown FailOutcome = iota
	// FailRequeued means the request went back to the queue at high priority.
	FailRequeued
	// FailDropped means the request used up its retries and was discarded.
	FailDropped
)

// String returns the lowercase name of the outcome.
func (o FailOutcome) String() string {
	switch o {
	case FailRequeued:
		return "requeued"
	case FailDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time view of the controller.
type Stats struct {
	ActiveRequests     int
	QueuedRequests     int
	TotalCapacity      int
	UtilizationPercent float64

	// AverageWaitTime is the mean age of the queued requests.
	AverageWaitTime time.Duration
}
