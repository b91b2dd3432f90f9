// Package store is the PostgreSQL side of grade imports: it reads the active
// roster and writes grade records, one batch per commit.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorly/gradeimport/internal/core"
	"github.com/tutorly/gradeimport/internal/reconcile"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Store implements core.RosterSource, core.CommitSink and core.BatchStore,
// and core.Pinger for health checks.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps a connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var (
	_ core.RosterSource = (*Store)(nil)
	_ core.CommitSink   = (*Store)(nil)
	_ core.BatchStore   = (*Store)(nil)
	_ core.Pinger       = (*Store)(nil)
)

const activeRosterSQL = `
SELECT id, student_code, first_name, last_name
FROM students
WHERE active
ORDER BY last_name, first_name, id`

// ActiveRoster returns every active student. The order is fixed so duplicate
// student codes always resolve to the same entry.
func (s *Store) ActiveRoster(ctx context.Context) ([]reconcile.RosterEntry, error) {
	return activeRoster(ctx, s.pool)
}

func activeRoster(ctx context.Context, db DBTX) ([]reconcile.RosterEntry, error) {
	rows, err := db.Query(ctx, activeRosterSQL)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (reconcile.RosterEntry, error) {
		var (
			e    reconcile.RosterEntry
			code pgtype.Text
		)
		if err := row.Scan(&e.ID, &code, &e.FirstName, &e.LastName); err != nil {
			return e, err
		}
		e.Code = rosterCode(code)
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan roster: %w", err)
	}
	return entries, nil
}

// rosterCode maps a NULL or blank student code to "", which never matches.
func rosterCode(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// gradeColumns lists grade_records columns in the order gradeRow returns values.
var gradeColumns = []string{
	"student_id",
	"class_label",
	"term_label",
	"mark_effort",
	"mark_attainment",
	"mark_homework",
	"mark_behaviour",
	"comment",
	"entered_by",
	"batch_id",
}

func gradeRow(r core.GradeRecord) []any {
	return []any{
		r.StudentID,
		r.Class,
		r.Term,
		optionalText(r.Marks.Effort),
		optionalText(r.Marks.Attainment),
		optionalText(r.Marks.Homework),
		optionalText(r.Marks.Behaviour),
		optionalText(r.Comment),
		r.EnteredBy,
		r.BatchID,
	}
}

// optionalText stores "" as NULL.
func optionalText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

const insertBatchSQL = `
INSERT INTO grade_import_batches (id, operator_id, file_name, row_count, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// InsertGrades writes the batch record and all grade records in one
// transaction using COPY. Either everything is stored or nothing is.
func (s *Store) InsertGrades(ctx context.Context, batch core.Batch, records []core.GradeRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertBatchSQL,
		batch.ID, batch.OperatorID, batch.FileName, batch.RowCount, string(batch.Status), batch.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"grade_records"},
		gradeColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return gradeRow(records[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy grade records: %w", err)
	}
	if int(n) != len(records) {
		return fmt.Errorf("copy grade records: wrote %d of %d rows", n, len(records))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const listBatchesSQL = `
SELECT id, operator_id, file_name, row_count, status, created_at, rolled_back_at
FROM grade_import_batches
ORDER BY created_at DESC, id
LIMIT $1`

// ListBatches returns the newest batches first.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]core.Batch, error) {
	rows, err := s.pool.Query(ctx, listBatchesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}

	batches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Batch, error) {
		var (
			b          core.Batch
			status     string
			rolledBack pgtype.Timestamptz
		)
		if err := row.Scan(&b.ID, &b.OperatorID, &b.FileName, &b.RowCount, &status, &b.CreatedAt, &rolledBack); err != nil {
			return b, err
		}
		b.Status = core.BatchStatus(status)
		if rolledBack.Valid {
			t := rolledBack.Time
			b.RolledBackAt = &t
		}
		return b, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan batches: %w", err)
	}
	return batches, nil
}

// RollbackBatch deletes a batch's grade records and marks the batch rolled back.
func (s *Store) RollbackBatch(ctx context.Context, id uuid.UUID) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM grade_import_batches WHERE id = $1 FOR UPDATE`, id,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, core.ErrBatchNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get batch: %w", err)
	}
	if core.BatchStatus(status) == core.BatchRolledBack {
		return 0, core.ErrAlreadyRolledBack
	}

	tag, err := tx.Exec(ctx, `DELETE FROM grade_records WHERE batch_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete grade records: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE grade_import_batches SET status = $2, rolled_back_at = $3 WHERE id = $1`,
		id, string(core.BatchRolledBack), time.Now().UTC(),
	); err != nil {
		return 0, fmt.Errorf("mark batch rolled back: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
