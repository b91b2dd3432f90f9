package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorly/gradeimport/internal/core"
	"github.com/tutorly/gradeimport/internal/reconcile"
)

// ============================================================================
// Helper Tests
// ============================================================================

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/grades?sslmode=disable", "pgx5://u:p@localhost:5432/grades?sslmode=disable"},
		{"postgresql://localhost/grades", "pgx5://localhost/grades"},
		{"pgx5://localhost/grades", "pgx5://localhost/grades"},
	}

	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGradeRow(t *testing.T) {
	rec := core.GradeRecord{
		StudentID: uuid.New(),
		Class:     "7B",
		Term:      "Autumn",
		Marks:     reconcile.Marks{Effort: "A", Homework: ""},
		EnteredBy: uuid.New(),
		BatchID:   uuid.New(),
	}

	row := gradeRow(rec)
	if len(row) != len(gradeColumns) {
		t.Fatalf("row has %d values for %d columns", len(row), len(gradeColumns))
	}
	if effort := row[3].(pgtype.Text); !effort.Valid || effort.String != "A" {
		t.Errorf("mark_effort = %+v", effort)
	}
	if homework := row[5].(pgtype.Text); homework.Valid {
		t.Errorf("empty mark should be NULL, got %+v", homework)
	}
	if comment := row[7].(pgtype.Text); comment.Valid {
		t.Errorf("empty comment should be NULL, got %+v", comment)
	}
	if row[9] != rec.BatchID {
		t.Errorf("batch_id = %v", row[9])
	}
}

func TestRosterCode(t *testing.T) {
	if got := rosterCode(pgtype.Text{}); got != "" {
		t.Errorf("NULL code = %q", got)
	}
	if got := rosterCode(pgtype.Text{String: "S1", Valid: true}); got != "S1" {
		t.Errorf("code = %q", got)
	}
}

// ============================================================================
// Integration Tests (require TEST_DATABASE_URL)
// ============================================================================

func testStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	if err := Migrate(url); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return New(pool), pool
}

func TestStore_CommitAndRollback(t *testing.T) {
	s, pool := testStore(t)
	ctx := context.Background()

	student := uuid.New()
	code := "T-" + student.String()[:8]
	if _, err := pool.Exec(ctx,
		`INSERT INTO students (id, student_code, first_name, last_name) VALUES ($1, $2, 'Ann', 'Lee')`,
		student, code,
	); err != nil {
		t.Fatalf("seed student: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM grade_records WHERE student_id = $1`, student)
		pool.Exec(context.Background(), `DELETE FROM students WHERE id = $1`, student)
	})

	roster, err := s.ActiveRoster(ctx)
	if err != nil {
		t.Fatalf("ActiveRoster: %v", err)
	}
	found := false
	for _, e := range roster {
		if e.ID == student && e.Code == code {
			found = true
		}
	}
	if !found {
		t.Fatalf("seeded student not in roster")
	}

	batch := core.Batch{
		ID:         uuid.New(),
		OperatorID: uuid.New(),
		FileName:   "grades.csv",
		RowCount:   2,
		Status:     core.BatchActive,
		CreatedAt:  time.Now().UTC(),
	}
	records := []core.GradeRecord{
		{StudentID: student, Class: "7B", Term: "Autumn", Marks: reconcile.Marks{Effort: "A"}, EnteredBy: batch.OperatorID, BatchID: batch.ID},
		{StudentID: student, Class: "7C", Term: "Autumn", Comment: "Good", EnteredBy: batch.OperatorID, BatchID: batch.ID},
	}
	if err := s.InsertGrades(ctx, batch, records); err != nil {
		t.Fatalf("InsertGrades: %v", err)
	}

	batches, err := s.ListBatches(ctx, 100)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	var listed *core.Batch
	for i := range batches {
		if batches[i].ID == batch.ID {
			listed = &batches[i]
		}
	}
	if listed == nil || listed.RowCount != 2 || listed.Status != core.BatchActive {
		t.Fatalf("batch not listed correctly: %+v", listed)
	}

	deleted, err := s.RollbackBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("RollbackBatch: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if _, err := s.RollbackBatch(ctx, batch.ID); !errors.Is(err, core.ErrAlreadyRolledBack) {
		t.Errorf("second rollback = %v", err)
	}
	if _, err := s.RollbackBatch(ctx, uuid.New()); !errors.Is(err, core.ErrBatchNotFound) {
		t.Errorf("unknown batch = %v", err)
	}
}

func TestStore_InsertGradesAllOrNothing(t *testing.T) {
	s, pool := testStore(t)
	ctx := context.Background()

	batch := core.Batch{ID: uuid.New(), OperatorID: uuid.New(), RowCount: 1, Status: core.BatchActive, CreatedAt: time.Now()}
	records := []core.GradeRecord{{StudentID: uuid.New(), EnteredBy: batch.OperatorID, BatchID: batch.ID}}

	if err := s.InsertGrades(ctx, batch, records); err == nil {
		t.Fatal("expected foreign key failure for unknown student")
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM grade_import_batches WHERE id = $1`, batch.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("batch row left behind after failed insert")
	}
}
