package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/platform/postgres"
	"github.com/phrazzld/coursegen/internal/store"
)

var outcomeColumns = []string{
	"id", "task_id", "submitter_id", "kind", "source",
	"attempts", "duration_ms", "last_error", "result", "created_at",
}

func newMockStore(t *testing.T) (*postgres.OutcomeStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewOutcomeStore(db, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func fallbackRecord() *store.OutcomeRecord {
	return &store.OutcomeRecord{
		ID:          uuid.New(),
		TaskID:      "task-1",
		SubmitterID: "user-1",
		Kind:        domain.KindModule,
		Source:      store.SourceFallback,
		Attempts:    4,
		Duration:    1500 * time.Millisecond,
		LastError:   "model unavailable",
		Result:      json.RawMessage(`{"title":"Module"}`),
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestOutcomeStore_Save(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	rec := fallbackRecord()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO generation_outcomes").
		WithArgs(sqlmock.AnyArg(), "task-1", "user-1", "module", "fallback", 4, int64(1500),
			"model unavailable", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outcome_totals").
		WithArgs("fallback").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Save(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeStore_SaveDuplicate(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO generation_outcomes").WillReturnError(newPgError("23505"))
	mock.ExpectRollback()

	err := s.Save(context.Background(), fallbackRecord())
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeStore_SaveTotalsFailureRollsBack(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	dbErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO generation_outcomes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outcome_totals").WillReturnError(dbErr)
	mock.ExpectRollback()

	err := s.Save(context.Background(), fallbackRecord())
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeStore_SaveInvalid(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	rec := fallbackRecord()
	rec.Source = "cache"

	err := s.Save(context.Background(), rec)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.NoError(t, mock.ExpectationsWereMet(), "invalid records never reach the database")
}

func TestOutcomeStore_Get(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	rec := fallbackRecord()

	mock.ExpectQuery("FROM generation_outcomes WHERE id").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(outcomeColumns).AddRow(
			rec.ID.String(), rec.TaskID, rec.SubmitterID, "module", "fallback",
			int64(4), int64(1500), rec.LastError, []byte(rec.Result), rec.CreatedAt,
		))

	got, err := s.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, domain.KindModule, got.Kind)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, 4, got.Attempts)
	assert.JSONEq(t, string(rec.Result), string(got.Result))
	assert.True(t, got.Degraded())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeStore_GetNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM generation_outcomes WHERE id").
		WillReturnRows(sqlmock.NewRows(outcomeColumns))

	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrOutcomeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeStore_List(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("FROM generation_outcomes").
		WithArgs("metadata", "", true, 10).
		WillReturnRows(sqlmock.NewRows(outcomeColumns).
			AddRow(uuid.NewString(), "task-2", "user-1", "metadata", "emergency",
				int64(0), int64(0), "scheduler stopped", nil, created.Add(time.Minute)).
			AddRow(uuid.NewString(), "task-1", "user-2", "metadata", "fallback",
				int64(4), int64(200), "timeout", []byte(`{}`), created))

	got, err := s.List(context.Background(), store.OutcomeFilter{
		Kind:         domain.KindMetadata,
		DegradedOnly: true,
		Limit:        10,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "task-2", got[0].TaskID)
	assert.Nil(t, got[0].Result)
	assert.Equal(t, store.SourceFallback, got[1].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeStore_ListQueryError(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM generation_outcomes").WillReturnError(errors.New("syntax error"))

	_, err := s.List(context.Background(), store.OutcomeFilter{})
	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "list", storeErr.Operation)
}

func TestOutcomeStore_Summary(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM outcome_totals").
		WillReturnRows(sqlmock.NewRows([]string{"source", "outcomes"}).
			AddRow("generated", int64(7)).
			AddRow("fallback", int64(2)).
			AddRow("emergency", int64(1)))

	got, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.OutcomeSummary{Total: 10, Generated: 7, Fallback: 2, Emergency: 1}, got)
	assert.InDelta(t, 0.3, got.FallbackRate(), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
