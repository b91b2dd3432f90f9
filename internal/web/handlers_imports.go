package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tutorly/gradeimport/internal/core"
	"github.com/tutorly/gradeimport/internal/logging"
	"github.com/tutorly/gradeimport/internal/web/views"
)

var (
	errNoFile           = errors.New("no file provided")
	errFileTooLarge     = errors.New("file too large")
	errInvalidSessionID = errors.New("invalid session id")
	errInvalidBatchID   = errors.New("invalid batch id")
)

// handleStartImport reads the uploaded sheet, previews it and opens a session.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, fmt.Errorf("%w: %w", errFileTooLarge, err), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %w", errNoFile, err), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		respondError(w, r, fmt.Errorf("%w: %d bytes", errFileTooLarge, header.Size), http.StatusRequestEntityTooLarge)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxSize))
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}

	operator, _ := core.OperatorFromContext(r.Context())
	sess, err := s.service.Preview(r.Context(), core.PreviewRequest{
		FileName:   header.Filename,
		Data:       data,
		OperatorID: operator,
	})
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Location", "/api/imports/"+sess.ID.String())
	if isHTMX(r) {
		renderHTML(w, r, http.StatusCreated, views.Preview(sess))
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// handleGetImport returns the current state of a session.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	operator, _ := core.OperatorFromContext(r.Context())
	sess, err := s.service.Get(id, operator)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	if isHTMX(r) {
		renderHTML(w, r, http.StatusOK, views.Preview(sess))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleCommitImport commits a previewing session as one batch.
func (s *Server) handleCommitImport(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	ctx := logging.WithContextFields(r.Context(), "session_id", id)
	operator, _ := core.OperatorFromContext(ctx)

	res, err := s.service.Commit(ctx, id, operator)
	if err != nil {
		respondError(w, r.WithContext(ctx), err, 0)
		return
	}
	if isHTMX(r) {
		renderHTML(w, r, http.StatusOK, views.Committed(res))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleCancelImport discards a session's preview.
func (s *Server) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	operator, _ := core.OperatorFromContext(r.Context())
	if err := s.service.Cancel(r.Context(), id, operator); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if isHTMX(r) {
		renderHTML(w, r, http.StatusOK, views.Cancelled(id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": id, "phase": core.PhaseIdle})
}

// handleListBatches returns recent batches, newest first. ?limit caps the count.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.ListBatches(r.Context(), parseIntParam(r, "limit", core.DefaultBatchListLimit))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	if batches == nil {
		batches = []core.Batch{}
	}
	if isHTMX(r) {
		renderHTML(w, r, http.StatusOK, views.BatchList(batches))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

// handleRollbackBatch deletes every grade record of a batch.
func (s *Server) handleRollbackBatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %w", errInvalidBatchID, err), http.StatusBadRequest)
		return
	}
	res, err := s.service.RollbackBatch(r.Context(), id)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %w", errInvalidSessionID, err), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func renderHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render fragment", "error", err)
	}
}
