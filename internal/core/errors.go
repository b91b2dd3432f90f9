package core

import "errors"

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("import session not found")
	// ErrSessionBusy is returned when a commit is already in flight for the session.
	ErrSessionBusy = errors.New("import session busy: commit already in progress")
	// ErrInvalidPhase is returned when an operation does not apply to the session's phase.
	ErrInvalidPhase = errors.New("invalid session phase")
	// ErrNoQualifyingRows is returned when a commit has no matched rows to insert.
	ErrNoQualifyingRows = errors.New("no qualifying rows to commit")
	// ErrCommitFailed wraps a failure reported by the commit sink.
	ErrCommitFailed = errors.New("commit failed")
	// ErrRosterUnavailable wraps a failure fetching the roster.
	ErrRosterUnavailable = errors.New("roster unavailable")
	// ErrBatchNotFound is returned for unknown batch IDs.
	ErrBatchNotFound = errors.New("import batch not found")
	// ErrAlreadyRolledBack is returned when a batch was already undone.
	ErrAlreadyRolledBack = errors.New("batch already rolled back")
)
