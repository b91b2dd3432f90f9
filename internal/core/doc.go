// Package core runs grade-sheet import sessions.
//
// It sits between the transport (HTTP handlers, the CLI) and the pure
// reconciliation in package reconcile, and talks to storage only through the
// [RosterSource], [CommitSink] and [BatchStore] interfaces.
//
// # Sessions
//
// Each upload opens a [Session] that moves through three phases:
//
//	Idle ──Preview──▶ Previewing ──Commit──▶ Committing ──ok──▶ Idle
//	                      ▲  │                    │
//	                      │  └──Cancel──▶ Idle    │
//	                      └────────failure────────┘
//
// A failed preview (unreadable or empty file, missing Student ID column,
// roster unavailable) opens no session. A failed commit leaves the preview
// exactly as it was so the operator can retry. One commit at a time may run
// per session; a second attempt gets [ErrSessionBusy].
//
// # Batches
//
// Every commit inserts its rows under one freshly generated batch ID. Batches
// are listed with [Service.ListBatches] and undone with [Service.RollbackBatch].
//
// # Error Handling
//
// Technical errors are mapped to operator-facing messages with [MapError].
// Each category has a code prefix for support reference:
//
//   - FILE: unreadable, empty or oversized uploads
//   - VAL: missing Student ID column, nothing to commit
//   - IMP: session lifecycle, parse capacity, roster access
//   - BAT: batch history and rollback
//   - DB: storage failures
//   - AUTH: operator authentication
package core
