package quality

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/coursegen/internal/events"
	"github.com/phrazzld/coursegen/internal/store"
)

// Recorder writes outcome events to an OutcomeStore.
type Recorder struct {
	store  store.OutcomeStore
	logger *slog.Logger
}

var _ events.EventHandler = (*Recorder)(nil)

// NewRecorder creates a Recorder. It panics when s is nil.
func NewRecorder(s store.OutcomeStore, logger *slog.Logger) *Recorder {
	if s == nil {
		panic("quality: nil outcome store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  s,
		logger: logger.With("component", "outcome_recorder"),
	}
}

// HandleEvent records the event. Redelivered events are ignored.
func (r *Recorder) HandleEvent(ctx context.Context, event *events.OutcomeEvent) error {
	if event == nil {
		return fmt.Errorf("%w: nil event", store.ErrInvalidEntity)
	}

	record := RecordFromEvent(event)
	if err := r.store.Save(ctx, record); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			r.logger.Debug("outcome already recorded", "event_id", event.ID, "task_id", event.TaskID)
			return nil
		}
		return fmt.Errorf("failed to record outcome of task %s: %w", event.TaskID, err)
	}

	if record.Degraded() {
		r.logger.Info("degraded outcome recorded",
			"task_id", record.TaskID,
			"submitter_id", record.SubmitterID,
			"kind", record.Kind,
			"source", record.Source,
			"attempts", record.Attempts)
	}
	return nil
}

// Summary returns the journal totals.
func (r *Recorder) Summary(ctx context.Context) (store.OutcomeSummary, error) {
	return r.store.Summary(ctx)
}

// Recent returns the newest journal entries matching filter.
func (r *Recorder) Recent(ctx context.Context, filter store.OutcomeFilter) ([]*store.OutcomeRecord, error) {
	return r.store.List(ctx, filter)
}

// Get returns one journal entry.
func (r *Recorder) Get(ctx context.Context, id uuid.UUID) (*store.OutcomeRecord, error) {
	return r.store.Get(ctx, id)
}

// RecordFromEvent converts an outcome event into a journal record.
func RecordFromEvent(e *events.OutcomeEvent) *store.OutcomeRecord {
	return &store.OutcomeRecord{
		ID:          e.ID,
		TaskID:      e.TaskID,
		SubmitterID: e.SubmitterID,
		Kind:        e.Kind,
		Source:      e.Source,
		Attempts:    e.Attempts,
		Duration:    e.Duration,
		LastError:   e.LastError,
		Result:      e.Result,
		CreatedAt:   e.CreatedAt,
	}
}
