package core

// error_messages.go maps technical errors to operator-facing messages with
// support codes. Operators can quote the code when reporting a problem.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large         Patterns: "file too large"
//	FILE002 - Legacy workbook        Patterns: "legacy .xls"
//	FILE003 - Encoding error         Patterns: "decode failed"
//	FILE004 - No file                Patterns: "no file provided"
//	FILE005 - Empty file             Patterns: "empty file"
//	FILE006 - Unreadable file        Patterns: "unreadable file"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL004 - Missing column          Patterns: "missing required column"
//	VAL007 - Nothing to commit       Patterns: "no qualifying rows"
//	VAL008 - Bad identifier          Patterns: "invalid uuid", "invalid session id", "invalid batch id"
//
// # Import Session Errors (IMP001-IMP099)
//
//	IMP001 - Session not found       Patterns: "import session not found"
//	IMP002 - Session busy            Patterns: "import session busy"
//	IMP003 - Wrong phase             Patterns: "invalid session phase"
//	IMP004 - System busy             Patterns: "too many concurrent parses"
//	IMP005 - Request cancelled       Patterns: "context canceled"
//	IMP006 - Request timeout         Patterns: "context deadline exceeded"
//	IMP007 - Roster unavailable      Patterns: "roster unavailable"
//
// # Batch Errors (BAT001-BAT099)
//
//	BAT001 - Batch not found         Patterns: "import batch not found"
//	BAT002 - Already rolled back     Patterns: "already rolled back"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key            Patterns: "duplicate key"
//	DB003 - Foreign key              Patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused       Patterns: "connection refused"
//	DB005 - Connection reset         Patterns: "connection reset"
//	DB006 - Timeout                  Patterns: "timeout"
//	DB007 - Deadlock                 Patterns: "deadlock"
//	DB010 - Commit failed            Any error wrapping ErrCommitFailed, checked first
//
// # Auth Errors (AUTH001-AUTH099)
//
//	AUTH001 - Not signed in          Patterns: "missing bearer token"
//	AUTH002 - Invalid credentials    Patterns: "invalid token"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the application log for the
// original error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides operator-facing error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused sheets or columns, or split the file by class",
			Code:    "FILE001",
		},
	},
	{
		pattern: "legacy .xls",
		msg: UserMessage{
			Message: "Old-style .xls workbooks are not supported",
			Action:  "Save the sheet as .xlsx or .csv and upload again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "decode failed",
		msg: UserMessage{
			Message: "File contains characters that could not be read",
			Action:  "Save the file as CSV UTF-8 and upload again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a grade sheet to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file has no data rows",
			Action:  "Put column headers in row 1 and one student per row below",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unreadable file",
		msg: UserMessage{
			Message: "The file could not be read as a spreadsheet",
			Action:  "Upload a .csv or .xlsx export of the grade sheet",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Validation Errors
	// =========================================================================
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "The sheet has no student ID column",
			Action:  "Add a column headed \"Student ID\" and upload again",
			Code:    "VAL004",
		},
	},
	{
		pattern: "no qualifying rows",
		msg: UserMessage{
			Message: "None of the rows matched a student on the roster",
			Action:  "Check the student IDs in the sheet against the roster",
			Code:    "VAL007",
		},
	},
	{
		pattern: "invalid uuid",
		msg: UserMessage{
			Message: "The identifier in the request is not valid",
			Action:  "Reload the page and try again",
			Code:    "VAL008",
		},
	},
	{
		pattern: "invalid session id",
		msg: UserMessage{
			Message: "The identifier in the request is not valid",
			Action:  "Reload the page and try again",
			Code:    "VAL008",
		},
	},
	{
		pattern: "invalid batch id",
		msg: UserMessage{
			Message: "The identifier in the request is not valid",
			Action:  "Reload the page and try again",
			Code:    "VAL008",
		},
	},

	// =========================================================================
	// Import Session Errors
	// =========================================================================
	{
		pattern: "import session not found",
		msg: UserMessage{
			Message: "Import session not found",
			Action:  "The preview may have expired. Upload the file again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "import session busy",
		msg: UserMessage{
			Message: "This import is already being committed",
			Action:  "Wait for the current commit to finish",
			Code:    "IMP002",
		},
	},
	{
		pattern: "invalid session phase",
		msg: UserMessage{
			Message: "This import has no preview to commit",
			Action:  "Upload the file again to start a new preview",
			Code:    "IMP003",
		},
	},
	{
		pattern: "too many concurrent parses",
		msg: UserMessage{
			Message: "The system is busy reading other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "IMP006",
		},
	},
	{
		pattern: "roster unavailable",
		msg: UserMessage{
			Message: "The student roster could not be loaded",
			Action:  "Please try again in a few moments",
			Code:    "IMP007",
		},
	},

	// =========================================================================
	// Batch Errors
	// =========================================================================
	{
		pattern: "import batch not found",
		msg: UserMessage{
			Message: "Import batch not found",
			Action:  "Check the batch ID in the import history",
			Code:    "BAT001",
		},
	},
	{
		pattern: "already rolled back",
		msg: UserMessage{
			Message: "This batch has already been rolled back",
			Action:  "No further action is needed",
			Code:    "BAT002",
		},
	},

	// =========================================================================
	// Database Errors
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Check the import history for an earlier batch of the same file",
			Code:    "DB001",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "A matched student no longer exists",
			Action:  "Upload the file again to refresh the roster",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "A matched student no longer exists",
			Action:  "Upload the file again to refresh the roster",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Auth Errors
	// =========================================================================
	{
		pattern: "missing bearer token",
		msg: UserMessage{
			Message: "You are not signed in",
			Action:  "Sign in and try again",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid token",
		msg: UserMessage{
			Message: "Your sign-in is not valid or has expired",
			Action:  "Sign in again",
			Code:    "AUTH002",
		},
	},
}

// commitFailedMessage wins over every pattern: whatever the store reported,
// the preview survives and the operator can commit again.
var commitFailedMessage = UserMessage{
	Message: "The grades could not be saved",
	Action:  "Your preview is kept. Try committing again",
	Code:    "DB010",
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-facing message.
// Returns the ERR000 fallback when no pattern matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	if errors.Is(err, ErrCommitFailed) {
		return commitFailedMessage
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
