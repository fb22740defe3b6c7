package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/coursegen/internal/domain"
)

// OutcomeEvent describes how a generation task was resolved.
type OutcomeEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	TaskID      string      `json:"task_id"`
	SubmitterID string      `json:"submitter_id"`
	Kind        domain.Kind `json:"kind"`

	// Source is where the content came from: generated, fallback or emergency.
	Source string `json:"source"`

	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`

	// LastError is the last generation error, empty when the first attempt succeeded.
	LastError string `json:"last_error,omitempty"`

	// Result is the delivered content serialized as JSON
	Result json.RawMessage `json:"result"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// Degraded reports whether the content did not come from the model.
func (e *OutcomeEvent) Degraded() bool {
	return e.Source != "generated"
}

// UnmarshalResult decodes the event result into the provided structure.
func (e *OutcomeEvent) UnmarshalResult(v any) error {
	return json.Unmarshal(e.Result, v)
}

// NewOutcomeEvent creates an OutcomeEvent, serializing result as JSON.
func NewOutcomeEvent(
	taskID, submitterID string,
	kind domain.Kind,
	source string,
	attempts int,
	duration time.Duration,
	lastErr error,
	result domain.Result,
) (*OutcomeEvent, error) {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	event := &OutcomeEvent{
		ID:          uuid.New(),
		TaskID:      taskID,
		SubmitterID: submitterID,
		Kind:        kind,
		Source:      source,
		Attempts:    attempts,
		Duration:    duration,
		Result:      resultBytes,
		CreatedAt:   time.Now().UTC(),
	}
	if lastErr != nil {
		event.LastError = lastErr.Error()
	}
	return event, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *OutcomeEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *OutcomeEvent) error

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *OutcomeEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the scheduler to publish outcomes without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *OutcomeEvent) error
}
