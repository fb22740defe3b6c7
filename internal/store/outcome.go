package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/coursegen/internal/domain"
)

// Outcome sources as recorded in the journal.
const (
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
	SourceEmergency = "emergency"
)

// OutcomeRecord is one resolved generation task.
type OutcomeRecord struct {
	ID          uuid.UUID
	TaskID      string
	SubmitterID string
	Kind        domain.Kind
	Source      string
	Attempts    int
	Duration    time.Duration
	LastError   string
	Result      json.RawMessage
	CreatedAt   time.Time
}

// Degraded reports whether the content did not come from the model.
func (r *OutcomeRecord) Degraded() bool {
	return r.Source != SourceGenerated
}

// Validate checks the record before it is written.
func (r *OutcomeRecord) Validate() error {
	var errs []error
	if r.ID == uuid.Nil {
		errs = append(errs, errors.New("id is required"))
	}
	if r.TaskID == "" {
		errs = append(errs, errors.New("task id is required"))
	}
	if !r.Kind.Valid() {
		errs = append(errs, fmt.Errorf("unknown kind %q", r.Kind))
	}
	switch r.Source {
	case SourceGenerated, SourceFallback, SourceEmergency:
	default:
		errs = append(errs, fmt.Errorf("unknown source %q", r.Source))
	}
	if r.Attempts < 0 {
		errs = append(errs, errors.New("attempts must not be negative"))
	}
	if r.CreatedAt.IsZero() {
		errs = append(errs, errors.New("created at is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, errors.Join(errs...))
	}
	return nil
}

// OutcomeFilter narrows List. Zero fields match everything.
type OutcomeFilter struct {
	Kind         domain.Kind
	SubmitterID  string
	DegradedOnly bool

	// Limit caps the number of records returned; zero means DefaultListLimit.
	Limit int
}

// DefaultListLimit applies when OutcomeFilter.Limit is zero.
const DefaultListLimit = 50

// EffectiveLimit returns the limit List should apply.
func (f OutcomeFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Matches reports whether r passes the filter's predicates.
func (f OutcomeFilter) Matches(r *OutcomeRecord) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.SubmitterID != "" && r.SubmitterID != f.SubmitterID {
		return false
	}
	if f.DegradedOnly && !r.Degraded() {
		return false
	}
	return true
}

// OutcomeSummary counts journal entries by source.
type OutcomeSummary struct {
	Total     int64 `json:"total"`
	Generated int64 `json:"generated"`
	Fallback  int64 `json:"fallback"`
	Emergency int64 `json:"emergency"`
}

// Add counts one outcome from the given source.
func (s *OutcomeSummary) Add(source string) {
	s.Total++
	switch source {
	case SourceGenerated:
		s.Generated++
	case SourceFallback:
		s.Fallback++
	case SourceEmergency:
		s.Emergency++
	}
}

// FallbackRate is the share of outcomes that were not generated, in [0, 1].
func (s OutcomeSummary) FallbackRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Fallback+s.Emergency) / float64(s.Total)
}

// OutcomeStore persists the outcome journal.
type OutcomeStore interface {
	// Save records an outcome. It returns ErrInvalidEntity for records that
	// fail validation and ErrDuplicate when the record id is already stored.
	Save(ctx context.Context, record *OutcomeRecord) error

	// Get returns the record for an event id, or ErrOutcomeNotFound.
	Get(ctx context.Context, id uuid.UUID) (*OutcomeRecord, error)

	// List returns the newest records matching filter, newest first.
	List(ctx context.Context, filter OutcomeFilter) ([]*OutcomeRecord, error)

	// Summary counts every recorded outcome by source.
	Summary(ctx context.Context) (OutcomeSummary, error)
}
