package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/coursedash/coursedash/internal/dashcore"
	"github.com/coursedash/coursedash/internal/pipeline"
	"github.com/coursedash/coursedash/internal/version"
)

// maxUploadBytes bounds one multipart upload held in memory.
const maxUploadBytes = 64 << 20

// API response types

// UploadResponse summarizes a successful processing run.
type UploadResponse struct {
	Unified     int                              `json:"unified"`
	Diagnostics int                              `json:"diagnostics"`
	Counts      map[string]pipeline.SourceCounts `json:"counts"`
}

// DiagnosticsResponse lists validation diagnostics.
type DiagnosticsResponse struct {
	Errors []dashcore.ValidationError `json:"errors"`
}

// UnifiedResponse carries the full reconciled dataset.
type UnifiedResponse struct {
	Unified []dashcore.UnifiedCourse `json:"unified"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string                     `json:"error"`
	Message string                     `json:"message,omitempty"`
	Details []dashcore.ValidationError `json:"details,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, msg string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: msg})
}

// handleUpload accepts the three spreadsheets as multipart parts named
// legacy, modern, and timespent, runs the pipeline, and on success swaps
// the held dataset. A decode failure or missing part rejects the upload
// outright; error-severity diagnostics reject it with the diagnostics
// attached so the user can fix and re-upload. The previous dataset stays
// untouched on any failure.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_multipart", err.Error())
		return
	}

	files := pipeline.FileSet{}
	parts := []struct {
		name string
		dst  *pipeline.Input
	}{
		{"legacy", &files.Legacy},
		{"modern", &files.Modern},
		{"timespent", &files.TimeSpent},
	}
	for _, p := range parts {
		in, err := formInput(r, p.name)
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing_file", fmt.Sprintf("form part %q: %v", p.name, err))
			return
		}
		*p.dst = in
	}

	res, err := pipeline.Run(r.Context(), files, s.opts)
	switch {
	case errors.Is(err, pipeline.ErrCriticalDiagnostics):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Details: res.Errors,
		})
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "decode_failed", err.Error())
		return
	}

	s.SetResult(res)
	writeJSON(w, http.StatusOK, UploadResponse{
		Unified:     len(res.Unified),
		Diagnostics: len(res.Errors),
		Counts:      res.Counts,
	})
}

// formInput adapts one multipart part into a pipeline input.
func formInput(r *http.Request, name string) (pipeline.Input, error) {
	file, header, err := r.FormFile(name)
	if err != nil {
		return pipeline.Input{}, err
	}
	file.Close()

	// Reopen per pipeline read; the multipart form keeps parts available
	// until the request body is released.
	return pipeline.Input{
		Name: header.Filename,
		Open: func() (io.ReadCloser, error) { return header.Open() },
	}, nil
}

// handleGetUnified returns the full reconciled dataset.
func (s *Server) handleGetUnified(w http.ResponseWriter, r *http.Request) {
	res, ok := s.currentResult(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, UnifiedResponse{Unified: res.Unified})
}

// handleGetAnalytics returns the aggregates for the current dataset.
func (s *Server) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	res, ok := s.currentResult(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Analytics)
}

// handleGetErrors returns the diagnostics of the current run.
func (s *Server) handleGetErrors(w http.ResponseWriter, r *http.Request) {
	res, ok := s.currentResult(w)
	if !ok {
		return
	}
	errs := res.Errors
	if errs == nil {
		errs = []dashcore.ValidationError{}
	}
	writeJSON(w, http.StatusOK, DiagnosticsResponse{Errors: errs})
}

// handleGetSummary returns the headline numbers for dashboard cards.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := s.currentResult(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Analytics.Summary)
}

// handleGetVersion returns build metadata, shown in the dashboard footer.
func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.GetInfo("coursedash"))
}

// currentResult fetches the held result, answering 409 when no upload has
// completed yet.
func (s *Server) currentResult(w http.ResponseWriter) (*pipeline.Result, bool) {
	res := s.Result()
	if res == nil {
		writeError(w, http.StatusConflict, "no_data", "no dataset processed yet; upload files first")
		return nil, false
	}
	return res, true
}
