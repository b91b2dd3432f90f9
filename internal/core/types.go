package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tutorly/gradeimport/internal/reconcile"
	"github.com/tutorly/gradeimport/internal/sheet"
)

// RosterSource provides the active student roster.
// Satisfied by *store.Store.
type RosterSource interface {
	ActiveRoster(ctx context.Context) ([]reconcile.RosterEntry, error)
}

// CommitSink persists one batch of grade records as a single all-or-nothing call.
type CommitSink interface {
	InsertGrades(ctx context.Context, batch Batch, records []GradeRecord) error
}

// BatchStore lists and undoes committed batches.
type BatchStore interface {
	ListBatches(ctx context.Context, limit int) ([]Batch, error)
	// RollbackBatch deletes the batch's grade records and returns how many were removed.
	// Returns ErrBatchNotFound or ErrAlreadyRolledBack.
	RollbackBatch(ctx context.Context, id uuid.UUID) (int64, error)
}

// Pinger is implemented by roster sources backed by a live connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GradeRecord is one row to insert, referencing the roster's internal identity.
type GradeRecord struct {
	StudentID uuid.UUID
	Class     string
	Term      string
	Marks     reconcile.Marks
	Comment   string
	EnteredBy uuid.UUID
	BatchID   uuid.UUID
}

// BatchStatus is the lifecycle state of a committed batch.
type BatchStatus string

const (
	BatchActive     BatchStatus = "active"
	BatchRolledBack BatchStatus = "rolled_back"
)

// Batch groups every grade record inserted by one commit.
type Batch struct {
	ID           uuid.UUID   `json:"id"`
	OperatorID   uuid.UUID   `json:"operatorId"`
	FileName     string      `json:"fileName"`
	RowCount     int         `json:"rowCount"`
	Status       BatchStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	RolledBackAt *time.Time  `json:"rolledBackAt,omitempty"`
}

// Phase is the state of an import session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePreviewing Phase = "previewing"
	PhaseCommitting Phase = "committing"
)

// Summary counts the rows of a preview.
type Summary struct {
	TotalRows      int `json:"totalRows"`   // Data rows read from the file
	DroppedRows    int `json:"droppedRows"` // Blank or "0" identifier
	Matched        int `json:"matched"`     // Matched, names agree or not given
	NameMismatch   int `json:"nameMismatch"`
	Unmatched      int `json:"unmatched"`
	Qualifying     int `json:"qualifying"` // Rows a commit would insert
	WithSuggestion int `json:"withSuggestion"`
}

// Session is one operator's import, from upload to commit or cancel.
//
// Previewing sessions hold the parsed sheet and its classification. A session
// returns to Idle, with that state cleared, after a successful commit or a cancel.
type Session struct {
	ID         uuid.UUID `json:"id"`
	OperatorID uuid.UUID `json:"operatorId"`
	FileName   string    `json:"fileName"`
	Phase      Phase     `json:"phase"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Format   sheet.Format      `json:"format,omitempty"`
	Encoding string            `json:"encoding,omitempty"`
	Headers  []string          `json:"headers,omitempty"`
	Binding  reconcile.Binding `json:"binding,omitempty"`
	Unbound  []reconcile.Field `json:"unbound,omitempty"`
	Warnings []sheet.Warning   `json:"warnings,omitempty"`
	Result   reconcile.Result  `json:"result"`
	Summary  Summary           `json:"summary"`

	// LastError is the most recent commit failure, kept until the next attempt.
	LastError string `json:"lastError,omitempty"`
	// BatchID is set once the session's rows have been committed.
	BatchID *uuid.UUID `json:"batchId,omitempty"`
}

// clear drops the transient preview state.
func (s *Session) clear() {
	s.Format = ""
	s.Encoding = ""
	s.Headers = nil
	s.Binding = nil
	s.Unbound = nil
	s.Warnings = nil
	s.Result = reconcile.Result{}
	s.Summary = Summary{}
	s.LastError = ""
}

// PreviewRequest is an uploaded file awaiting reconciliation.
type PreviewRequest struct {
	FileName   string
	Data       []byte
	OperatorID uuid.UUID
}

// CommitResult reports a successful commit.
type CommitResult struct {
	SessionID uuid.UUID `json:"sessionId"`
	BatchID   uuid.UUID `json:"batchId"`
	Inserted  int       `json:"inserted"`
	Skipped   int       `json:"skipped"` // Unmatched rows left out
}

// RollbackResult reports a batch rollback.
type RollbackResult struct {
	BatchID     uuid.UUID `json:"batchId"`
	RowsDeleted int64     `json:"rowsDeleted"`
}
