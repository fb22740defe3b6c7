package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/store"
)

func validRecord() *store.OutcomeRecord {
	return &store.OutcomeRecord{
		ID:          uuid.New(),
		TaskID:      "task-1",
		SubmitterID: "user-1",
		Kind:        domain.KindMetadata,
		Source:      store.SourceGenerated,
		Attempts:    1,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestOutcomeRecordValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(r *store.OutcomeRecord)
		errMsg string
	}{
		{name: "valid", mutate: func(*store.OutcomeRecord) {}},
		{name: "missing id", mutate: func(r *store.OutcomeRecord) { r.ID = uuid.Nil }, errMsg: "id is required"},
		{name: "missing task", mutate: func(r *store.OutcomeRecord) { r.TaskID = "" }, errMsg: "task id is required"},
		{name: "bad kind", mutate: func(r *store.OutcomeRecord) { r.Kind = "lesson" }, errMsg: "unknown kind"},
		{name: "bad source", mutate: func(r *store.OutcomeRecord) { r.Source = "cache" }, errMsg: "unknown source"},
		{name: "negative attempts", mutate: func(r *store.OutcomeRecord) { r.Attempts = -1 }, errMsg: "attempts"},
		{name: "zero time", mutate: func(r *store.OutcomeRecord) { r.CreatedAt = time.Time{} }, errMsg: "created at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := validRecord()
			tt.mutate(r)

			err := r.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, store.ErrInvalidEntity)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestOutcomeFilter(t *testing.T) {
	t.Parallel()

	generated := validRecord()
	fallback := validRecord()
	fallback.Source = store.SourceFallback
	fallback.Kind = domain.KindModule
	fallback.SubmitterID = "user-2"

	assert.True(t, store.OutcomeFilter{}.Matches(generated))
	assert.True(t, store.OutcomeFilter{}.Matches(fallback))

	assert.False(t, store.OutcomeFilter{DegradedOnly: true}.Matches(generated))
	assert.True(t, store.OutcomeFilter{DegradedOnly: true}.Matches(fallback))

	assert.True(t, store.OutcomeFilter{Kind: domain.KindModule}.Matches(fallback))
	assert.False(t, store.OutcomeFilter{Kind: domain.KindModule}.Matches(generated))

	assert.False(t, store.OutcomeFilter{SubmitterID: "user-2"}.Matches(generated))

	assert.Equal(t, store.DefaultListLimit, store.OutcomeFilter{}.EffectiveLimit())
	assert.Equal(t, 5, store.OutcomeFilter{Limit: 5}.EffectiveLimit())
}

func TestOutcomeSummary(t *testing.T) {
	t.Parallel()

	var s store.OutcomeSummary
	assert.Zero(t, s.FallbackRate())

	s.Add(store.SourceGenerated)
	s.Add(store.SourceGenerated)
	s.Add(store.SourceFallback)
	s.Add(store.SourceEmergency)

	assert.Equal(t, store.OutcomeSummary{Total: 4, Generated: 2, Fallback: 1, Emergency: 1}, s)
	assert.InDelta(t, 0.5, s.FallbackRate(), 1e-9)
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := store.NewStoreError("outcome", "save", "insert failed", cause)

	assert.Equal(t, "save operation on outcome failed: insert failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "list operation on outcome failed: no rows",
		store.NewStoreError("outcome", "list", "no rows", nil).Error())
	assert.ErrorIs(t, store.ErrOutcomeNotFound, store.ErrNotFound)
}
