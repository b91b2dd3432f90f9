package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tutorly/gradeimport/internal/logging"
	"github.com/tutorly/gradeimport/internal/metrics"
	"github.com/tutorly/gradeimport/internal/reconcile"
	"github.com/tutorly/gradeimport/internal/sheet"
)

// DefaultCommitTimeout bounds a single commit call when Options leaves it unset.
const DefaultCommitTimeout = 30 * time.Second

// DefaultBatchListLimit is used when ListBatches is called with a non-positive limit.
const DefaultBatchListLimit = 50

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	MaxConcurrentParses int
	ParseWait           time.Duration
	CommitTimeout       time.Duration
	Metrics             *metrics.Metrics
	Now                 func() time.Time
}

// Service drives import sessions from upload to commit.
type Service struct {
	roster  RosterSource
	sink    CommitSink
	batches BatchStore

	limiter       *ParseLimiter
	metrics       *metrics.Metrics
	commitTimeout time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewService creates a Service. batches may be nil if batch history is not needed.
func NewService(roster RosterSource, sink CommitSink, batches BatchStore, opts Options) *Service {
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = DefaultCommitTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		roster:        roster,
		sink:          sink,
		batches:       batches,
		limiter:       NewParseLimiter(opts.MaxConcurrentParses, opts.ParseWait),
		metrics:       opts.Metrics,
		commitTimeout: opts.CommitTimeout,
		now:           opts.Now,
		sessions:      make(map[uuid.UUID]*Session),
	}
}

// Limiter returns the parse limiter, for shutdown draining.
func (s *Service) Limiter() *ParseLimiter {
	return s.limiter
}

// Ping checks the roster source when it can be checked. Sources without a
// connection always report healthy.
func (s *Service) Ping(ctx context.Context) error {
	p, ok := s.roster.(Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRosterUnavailable, err)
	}
	return nil
}

// Preview parses an uploaded sheet, reconciles it against a fresh roster
// snapshot and opens a session in the Previewing phase.
//
// Unreadable or empty files, a missing identifier column and roster failures
// return an error and open no session.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (Session, error) {
	log := logging.WithFields(ctx, "file", req.FileName, "operator", req.OperatorID)
	start := s.now()

	var sess *Session
	err := s.limiter.Do(ctx, func() error {
		var err error
		sess, err = s.buildPreview(ctx, req)
		return err
	})
	if err != nil {
		s.metrics.PreviewFailed(MapError(err).Code)
		log.Warn("preview failed", "error", err)
		return Session{}, err
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	snapshot := *sess
	open := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetSessions(open)
	s.metrics.PreviewSucceeded(s.now().Sub(start).Seconds(), map[string]int{
		reconcile.MatchedClean.String():        snapshot.Summary.Matched,
		reconcile.MatchedNameMismatch.String(): snapshot.Summary.NameMismatch,
		reconcile.Unmatched.String():           snapshot.Summary.Unmatched,
	})
	log.Info("preview ready",
		"session_id", snapshot.ID,
		"rows", snapshot.Summary.TotalRows,
		"qualifying", snapshot.Summary.Qualifying,
		"issues", len(snapshot.Result.Issues),
	)
	return snapshot, nil
}

func (s *Service) buildPreview(ctx context.Context, req PreviewRequest) (*Session, error) {
	parsed, err := sheet.Parse(req.FileName, req.Data)
	if err != nil {
		return nil, err
	}

	binding, err := reconcile.ResolveColumns(parsed.Headers)
	if err != nil {
		return nil, err
	}
	rows := reconcile.Normalize(parsed.Rows, binding)

	roster, err := s.roster.ActiveRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRosterUnavailable, err)
	}
	result := reconcile.Match(rows, roster)

	now := s.now()
	return &Session{
		ID:         uuid.New(),
		OperatorID: req.OperatorID,
		FileName:   req.FileName,
		Phase:      PhasePreviewing,
		CreatedAt:  now,
		UpdatedAt:  now,
		Format:     parsed.Format,
		Encoding:   parsed.Encoding,
		Headers:    parsed.Headers,
		Binding:    binding,
		Unbound:    binding.Unbound(),
		Warnings:   parsed.Warnings,
		Result:     result,
		Summary:    summarize(len(parsed.Rows), result),
	}, nil
}

func summarize(total int, res reconcile.Result) Summary {
	sum := Summary{
		TotalRows:    total,
		DroppedRows:  total - len(res.Rows),
		Matched:      res.Count(reconcile.MatchedClean),
		NameMismatch: res.Count(reconcile.MatchedNameMismatch),
		Unmatched:    res.Count(reconcile.Unmatched),
		Qualifying:   len(res.Qualifying()),
	}
	for _, mr := range res.Rows {
		if mr.Suggestion != nil {
			sum.WithSuggestion++
		}
	}
	return sum
}

// lookup finds a session visible to operator. s.mu must be held.
// Sessions belong to their uploader; a uuid.Nil operator on either side
// (auth disabled, command line) is not scoped. Another operator's session
// reports ErrSessionNotFound.
func (s *Service) lookup(id, operator uuid.UUID) (*Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if operator != uuid.Nil && sess.OperatorID != uuid.Nil && sess.OperatorID != operator {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Get returns a snapshot of a session owned by operator.
func (s *Service) Get(id, operator uuid.UUID) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id, operator)
	if err != nil {
		return Session{}, err
	}
	return *sess, nil
}

// Commit inserts every matched row of a Previewing session as one batch.
//
// With no qualifying rows the commit is rejected before the sink is called.
// On sink failure the session returns to Previewing with its preview intact;
// on success it returns to Idle with the preview cleared. operator defaults to
// the session's uploader when uuid.Nil. Only the uploader may commit.
func (s *Service) Commit(ctx context.Context, id, operator uuid.UUID) (CommitResult, error) {
	s.mu.Lock()
	sess, err := s.lookup(id, operator)
	if err != nil {
		s.mu.Unlock()
		return CommitResult{}, err
	}
	switch sess.Phase {
	case PhaseCommitting:
		s.mu.Unlock()
		return CommitResult{}, ErrSessionBusy
	case PhaseIdle:
		s.mu.Unlock()
		return CommitResult{}, fmt.Errorf("%w: session is idle", ErrInvalidPhase)
	}

	qualifying := sess.Result.Qualifying()
	if len(qualifying) == 0 {
		s.mu.Unlock()
		return CommitResult{}, ErrNoQualifyingRows
	}

	if operator == uuid.Nil {
		operator = sess.OperatorID
	}
	batch := Batch{
		ID:         uuid.New(),
		OperatorID: operator,
		FileName:   sess.FileName,
		RowCount:   len(qualifying),
		Status:     BatchActive,
		CreatedAt:  s.now(),
	}
	records := buildRecords(qualifying, batch)
	skipped := len(sess.Result.Rows) - len(qualifying)

	sess.Phase = PhaseCommitting
	sess.UpdatedAt = s.now()
	s.mu.Unlock()

	log := logging.WithFields(ctx, "session_id", id, "batch_id", batch.ID, "operator", operator)
	log.Info("commit started", "rows", len(records))

	cctx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()
	err = s.sink.InsertGrades(cctx, batch, records)

	s.mu.Lock()
	sess.UpdatedAt = s.now()
	if err != nil {
		sess.Phase = PhasePreviewing
		sess.LastError = err.Error()
		s.mu.Unlock()

		s.metrics.Commit(false, 0)
		log.Error("commit failed", "error", err)
		return CommitResult{}, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	sess.clear()
	sess.Phase = PhaseIdle
	sess.BatchID = &batch.ID
	s.mu.Unlock()

	s.metrics.Commit(true, len(records))
	log.Info("commit completed", "inserted", len(records), "skipped", skipped)
	return CommitResult{
		SessionID: id,
		BatchID:   batch.ID,
		Inserted:  len(records),
		Skipped:   skipped,
	}, nil
}

func buildRecords(rows []reconcile.MatchedRow, batch Batch) []GradeRecord {
	records := make([]GradeRecord, len(rows))
	for i, mr := range rows {
		records[i] = GradeRecord{
			StudentID: mr.Entry.ID,
			Class:     mr.Row.Class,
			Term:      mr.Row.Term,
			Marks:     mr.Row.Marks,
			Comment:   mr.Row.Comment,
			EnteredBy: batch.OperatorID,
			BatchID:   batch.ID,
		}
	}
	return records
}

// Cancel discards a session's preview and returns it to Idle.
// Cancelling an Idle session is a no-op; a committing session cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id, operator uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id, operator)
	if err != nil {
		return err
	}
	switch sess.Phase {
	case PhaseCommitting:
		return ErrSessionBusy
	case PhasePreviewing:
		sess.clear()
		sess.Phase = PhaseIdle
		sess.UpdatedAt = s.now()
		logging.FromContext(ctx).Info("preview cancelled", "session_id", id)
	}
	return nil
}

// ListBatches returns the most recent batches, newest first.
func (s *Service) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	if s.batches == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultBatchListLimit
	}
	return s.batches.ListBatches(ctx, limit)
}

// RollbackBatch deletes every grade record of a batch and marks it rolled back.
func (s *Service) RollbackBatch(ctx context.Context, id uuid.UUID) (RollbackResult, error) {
	if s.batches == nil {
		return RollbackResult{}, ErrBatchNotFound
	}

	deleted, err := s.batches.RollbackBatch(ctx, id)
	if err != nil {
		return RollbackResult{BatchID: id}, fmt.Errorf("rollback batch %s: %w", id, err)
	}

	s.metrics.Rollback()
	logging.WithFields(ctx, "batch_id", id).Info("batch rolled back", "rows_deleted", deleted)
	return RollbackResult{BatchID: id, RowsDeleted: deleted}, nil
}
