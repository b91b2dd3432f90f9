// Package reconcile matches uploaded grade sheets against the active student roster.
//
// The package is pure: it performs no I/O and holds no state between calls, so a
// preview can be recomputed from the same inputs at any time with identical
// results. Parsing files lives in package sheet; persistence lives in package store.
//
// # Pipeline
//
// A grade sheet passes through three steps before an operator sees it:
//
//  1. [ResolveColumns] binds each canonical [Field] to at most one header from the
//     sheet's first row. Only [FieldIdentifier] is required.
//  2. [Normalize] turns each [RawRow] into a [Row] of trimmed text. Rows whose
//     identifier is empty or the literal "0" are dropped without an error.
//  3. [Match] classifies each Row against the roster by exact identifier and
//     reports an [Outcome] per row plus a flat list of human-readable issues.
//
// # Outcomes
//
//   - MatchedClean: identifier found, names agree or were not submitted.
//   - MatchedNameMismatch: identifier found, both names submitted, at least one
//     differs from the roster (case-insensitive). Still eligible for commit.
//   - Unmatched: identifier not on the roster. Never committed.
//
// Unmatched rows may carry a Suggestion (a near-miss roster entry). Suggestions
// are advisory and never change the outcome.
package reconcile
