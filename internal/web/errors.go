package web

// errors.go turns service errors into responses.
//
// Every failure is logged with its technical detail and request ID, then
// mapped by core.MapError to an operator message with a support code. HTMX
// requests get an alert fragment; everything else gets JSON.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tutorly/gradeimport/internal/core"
	"github.com/tutorly/gradeimport/internal/logging"
	"github.com/tutorly/gradeimport/internal/reconcile"
	"github.com/tutorly/gradeimport/internal/sheet"
	"github.com/tutorly/gradeimport/internal/web/views"
)

// ErrorResponse is the JSON body of a failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	// Detail carries the store's own failure text for commit errors.
	Detail string `json:"detail,omitempty"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, sheet.ErrEmpty),
		errors.Is(err, sheet.ErrUnreadable),
		errors.Is(err, reconcile.ErrMissingColumn),
		errors.Is(err, core.ErrNoQualifyingRows):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrBatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSessionBusy),
		errors.Is(err, core.ErrInvalidPhase),
		errors.Is(err, core.ErrAlreadyRolledBack):
		return http.StatusConflict
	case errors.Is(err, core.ErrCommitFailed):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrTooManyParses),
		errors.Is(err, core.ErrRosterUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped operator message.
// A zero status is derived from the error.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= 500 {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request error", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		views.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
		return
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if errors.Is(err, core.ErrCommitFailed) {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
