package quality_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/events"
	"github.com/phrazzld/coursegen/internal/fallback"
	"github.com/phrazzld/coursegen/internal/quality"
	"github.com/phrazzld/coursegen/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func outcomeEvent(t *testing.T, taskID, source string, kind domain.Kind) *events.OutcomeEvent {
	t.Helper()
	var lastErr error
	if source != store.SourceGenerated {
		lastErr = errors.New("model unavailable")
	}
	e, err := events.NewOutcomeEvent(taskID, "user-1", kind, source, 4, time.Second, lastErr, fallback.Emergency(kind))
	require.NoError(t, err)
	return e
}

func record(source string) *store.OutcomeRecord {
	return &store.OutcomeRecord{
		ID:        uuid.New(),
		TaskID:    "task-" + uuid.NewString()[:8],
		Kind:      domain.KindMetadata,
		Source:    source,
		Attempts:  1,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRecorder_HandleEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := quality.NewMemoryStore(0)
	rec := quality.NewRecorder(memory, discardLogger())

	generated := outcomeEvent(t, "task-1", store.SourceGenerated, domain.KindMetadata)
	degraded := outcomeEvent(t, "task-2", store.SourceFallback, domain.KindModule)

	require.NoError(t, rec.HandleEvent(ctx, generated))
	require.NoError(t, rec.HandleEvent(ctx, degraded))

	got, err := rec.Get(ctx, degraded.ID)
	require.NoError(t, err)
	assert.Equal(t, "task-2", got.TaskID)
	assert.Equal(t, "user-1", got.SubmitterID)
	assert.Equal(t, domain.KindModule, got.Kind)
	assert.Equal(t, store.SourceFallback, got.Source)
	assert.Equal(t, 4, got.Attempts)
	assert.Equal(t, "model unavailable", got.LastError)
	assert.JSONEq(t, string(degraded.Result), string(got.Result))

	summary, err := rec.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Total)
	assert.InDelta(t, 0.5, summary.FallbackRate(), 1e-9)

	recent, err := rec.Recent(ctx, store.OutcomeFilter{DegradedOnly: true})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "task-2", recent[0].TaskID)
}

func TestRecorder_Redelivery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := quality.NewMemoryStore(0)
	rec := quality.NewRecorder(memory, discardLogger())
	e := outcomeEvent(t, "task-1", store.SourceGenerated, domain.KindMetadata)

	require.NoError(t, rec.HandleEvent(ctx, e))
	require.NoError(t, rec.HandleEvent(ctx, e), "redelivery is not an error")

	summary, err := memory.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Total)
}

func TestRecorder_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := quality.NewRecorder(quality.NewMemoryStore(0), discardLogger())

	assert.ErrorIs(t, rec.HandleEvent(ctx, nil), store.ErrInvalidEntity)

	bad := outcomeEvent(t, "task-1", "cache", domain.KindMetadata)
	err := rec.HandleEvent(ctx, bad)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.ErrorContains(t, err, "task-1")

	assert.Panics(t, func() { quality.NewRecorder(nil, nil) })
}

func TestRecorder_WiredToEmitter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := quality.NewMemoryStore(0)
	emitter := events.NewInMemoryEventEmitter(discardLogger())
	emitter.RegisterHandler(quality.NewRecorder(memory, discardLogger()))

	require.NoError(t, emitter.EmitEvent(ctx, outcomeEvent(t, "task-1", store.SourceEmergency, domain.KindMetadata)))

	summary, err := memory.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.OutcomeSummary{Total: 1, Emergency: 1}, summary)
}

func TestMemoryStore_Capacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := quality.NewMemoryStore(2)

	first := record(store.SourceGenerated)
	require.NoError(t, memory.Save(ctx, first))
	require.NoError(t, memory.Save(ctx, record(store.SourceFallback)))
	require.NoError(t, memory.Save(ctx, record(store.SourceGenerated)))

	_, err := memory.Get(ctx, first.ID)
	assert.ErrorIs(t, err, store.ErrOutcomeNotFound, "oldest record is evicted")

	all, err := memory.List(ctx, store.OutcomeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	summary, err := memory.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Total, "summary keeps counting evicted records")
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := quality.NewMemoryStore(0)

	var ids []string
	for range 5 {
		r := record(store.SourceGenerated)
		ids = append(ids, r.TaskID)
		require.NoError(t, memory.Save(ctx, r))
	}

	got, err := memory.List(ctx, store.OutcomeFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[4], got[0].TaskID)
	assert.Equal(t, ids[3], got[1].TaskID)
	assert.Equal(t, ids[2], got[2].TaskID)

	got[0].TaskID = "mutated"
	again, err := memory.List(ctx, store.OutcomeFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, ids[4], again[0].TaskID, "callers receive copies")
}

func TestMemoryStore_ConcurrentSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := quality.NewMemoryStore(0)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, memory.Save(ctx, record(store.SourceFallback)))
		}()
	}
	wg.Wait()

	summary, err := memory.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), summary.Total)
	assert.Equal(t, int64(50), summary.Fallback)
}
