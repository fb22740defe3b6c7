package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/platform/logger"
	"github.com/phrazzld/coursegen/internal/store"
)

// OutcomeStore implements store.OutcomeStore on PostgreSQL. Every save
// inserts the record and bumps the per-source total in one transaction, so
// Summary stays cheap however large the journal grows.
type OutcomeStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.OutcomeStore = (*OutcomeStore)(nil)

// NewOutcomeStore creates an OutcomeStore over an open pgx-backed *sql.DB.
func NewOutcomeStore(db *sql.DB, logger *slog.Logger) *OutcomeStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutcomeStore{
		db:     db,
		logger: logger.With("component", "outcome_store"),
	}
}

const outcomeColumns = `id, task_id, submitter_id, kind, source, attempts, duration_ms, last_error, result, created_at`

// Save implements store.OutcomeStore.
func (s *OutcomeStore) Save(ctx context.Context, record *store.OutcomeRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("outcome validation failed", "task_id", record.TaskID, "error", err)
		return err
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return saveOutcome(ctx, tx, record)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			log.Debug("outcome already recorded", "event_id", record.ID)
		} else {
			log.Error("failed to save outcome", "task_id", record.TaskID, "error", err)
		}
		return err
	}

	log.Debug("outcome saved", "task_id", record.TaskID, "source", record.Source)
	return nil
}

func saveOutcome(ctx context.Context, db store.DBTX, record *store.OutcomeRecord) error {
	insert := `
		INSERT INTO generation_outcomes (` + outcomeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var result []byte
	if len(record.Result) > 0 {
		result = record.Result
	}
	_, err := db.ExecContext(ctx, insert,
		record.ID,
		record.TaskID,
		record.SubmitterID,
		string(record.Kind),
		record.Source,
		record.Attempts,
		record.Duration.Milliseconds(),
		record.LastError,
		result,
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return MapError(err)
	}

	bump := `
		INSERT INTO outcome_totals (source, outcomes) VALUES ($1, 1)
		ON CONFLICT (source) DO UPDATE SET outcomes = outcome_totals.outcomes + 1
	`
	if _, err := db.ExecContext(ctx, bump, record.Source); err != nil {
		return MapError(err)
	}
	return nil
}

// Get implements store.OutcomeStore.
func (s *OutcomeStore) Get(ctx context.Context, id uuid.UUID) (*store.OutcomeRecord, error) {
	query := `SELECT ` + outcomeColumns + ` FROM generation_outcomes WHERE id = $1`

	record, err := scanOutcome(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrOutcomeNotFound
		}
		return nil, store.NewStoreError("outcome", "get", "query failed", MapError(err))
	}
	return record, nil
}

// List implements store.OutcomeStore.
func (s *OutcomeStore) List(ctx context.Context, filter store.OutcomeFilter) ([]*store.OutcomeRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + outcomeColumns + `
		FROM generation_outcomes
		WHERE ($1 = '' OR kind = $1)
		  AND ($2 = '' OR submitter_id = $2)
		  AND (NOT $3 OR source <> 'generated')
		ORDER BY created_at DESC, id
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query,
		string(filter.Kind),
		filter.SubmitterID,
		filter.DegradedOnly,
		filter.EffectiveLimit(),
	)
	if err != nil {
		log.Error("failed to list outcomes", "error", err)
		return nil, store.NewStoreError("outcome", "list", "query failed", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", "error", closeErr)
		}
	}()

	var records []*store.OutcomeRecord
	for rows.Next() {
		record, err := scanOutcome(rows)
		if err != nil {
			return nil, store.NewStoreError("outcome", "list", "scan failed", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("outcome", "list", "row iteration failed", err)
	}
	return records, nil
}

// Summary implements store.OutcomeStore.
func (s *OutcomeStore) Summary(ctx context.Context) (store.OutcomeSummary, error) {
	var summary store.OutcomeSummary

	rows, err := s.db.QueryContext(ctx, `SELECT source, outcomes FROM outcome_totals`)
	if err != nil {
		return summary, store.NewStoreError("outcome", "summary", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			source string
			count  int64
		)
		if err := rows.Scan(&source, &count); err != nil {
			return summary, store.NewStoreError("outcome", "summary", "scan failed", err)
		}
		summary.Total += count
		switch source {
		case store.SourceGenerated:
			summary.Generated = count
		case store.SourceFallback:
			summary.Fallback = count
		case store.SourceEmergency:
			summary.Emergency = count
		}
	}
	if err := rows.Err(); err != nil {
		return summary, store.NewStoreError("outcome", "summary", "row iteration failed", err)
	}
	return summary, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOutcome(row rowScanner) (*store.OutcomeRecord, error) {
	var (
		record     store.OutcomeRecord
		kind       string
		durationMS int64
		result     []byte
	)
	err := row.Scan(
		&record.ID,
		&record.TaskID,
		&record.SubmitterID,
		&kind,
		&record.Source,
		&record.Attempts,
		&durationMS,
		&record.LastError,
		&result,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Kind = domain.Kind(kind)
	record.Duration = time.Duration(durationMS) * time.Millisecond
	if len(result) > 0 {
		record.Result = result
	}
	return &record, nil
}
