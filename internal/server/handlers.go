package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/hejijunhao/triage/internal/engine/classifier"
	"github.com/hejijunhao/triage/internal/engine/parser"
	"github.com/hejijunhao/triage/internal/engine/summary"
	"github.com/hejijunhao/triage/internal/model"
	"github.com/hejijunhao/triage/internal/store"
)

const defaultSourceName = "upload.txt"

// httpError carries the status code a handler error maps to.
type httpError struct {
	status int
	err    error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		status := http.StatusInternalServerError
		var he *httpError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &he):
			status = he.status
		case errors.As(err, &tooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, parser.ErrInvalidEncoding):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, store.ErrUnknownTeam), errors.Is(err, store.ErrInvalid):
			status = http.StatusUnprocessableEntity
		}
		if status >= 500 {
			slog.Error("request failed", "path", r.URL.Path, "error", err)
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type analyzeResponse struct {
	model.Report
	// Warnings lists analysis stages skipped because a model is not loaded.
	Warnings []string `json:"warnings,omitempty"`
}

// POST /v1/analyze
// Body: the raw log file, or multipart/form-data with the file in "file".
// The raw form takes the file name from ?source= or X-Source-File.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	name, data, err := readUpload(r)
	if err != nil {
		return err
	}
	text, err := parser.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	report, err := s.engine.Analyze(r.Context(), name, text)
	resp := analyzeResponse{Report: report}
	switch {
	case errors.Is(err, classifier.ErrModelUnavailable):
		resp.Warnings = strings.Split(err.Error(), "\n")
	case err != nil:
		return err
	}

	if s.output != nil {
		if err := s.output.Write(r.Context(), report); err != nil {
			slog.Warn("report output failed", "run_id", report.RunID, "error", err)
		}
	}
	return writeJSON(w, http.StatusOK, resp)
}

func readUpload(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		name := r.URL.Query().Get("source")
		if name == "" {
			name = r.Header.Get("X-Source-File")
		}
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", nil, err
		}
		return sourceName(name), data, nil
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, err
		}
		return "", nil, badRequest("multipart upload needs a %q field: %v", "file", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return sourceName(hdr.Filename), data, nil
}

func sourceName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		return defaultSourceName
	}
	return name
}

type catalogResponse struct {
	Defects []model.DefectPattern `json:"defects"`
	Teams   []string              `json:"teams"`
}

// GET /v1/catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) error {
	resp := catalogResponse{Defects: s.engine.Catalog().Defects(), Teams: s.store.Teams()}
	if resp.Defects == nil {
		resp.Defects = []model.DefectPattern{}
	}
	return writeJSON(w, http.StatusOK, resp)
}

type confirmRequest struct {
	Label         string `json:"label"`
	LogCount      int    `json:"log_count"`
	SampleMessage string `json:"sample_message"`
	AssignedTeam  string `json:"assigned_team"`
	SourceFile    string `json:"source_file"`
}

type confirmResponse struct {
	Confirmation model.Confirmation `json:"confirmation"`
	Ticket       string             `json:"ticket"`
}

// POST /v1/confirmations
// Body: {"label", "log_count", "sample_message", "assigned_team", "source_file"}
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) error {
	var body confirmRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return badRequest("invalid confirmation body: %v", err)
	}

	c, err := s.store.Append(model.Confirmation{
		Label:         body.Label,
		LogCount:      body.LogCount,
		SampleMessage: body.SampleMessage,
		AssignedTeam:  body.AssignedTeam,
		SourceFile:    body.SourceFile,
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveConfirmation(c.AssignedTeam)
	}
	return writeJSON(w, http.StatusCreated, confirmResponse{Confirmation: c, Ticket: summary.Ticket(c)})
}

// GET /v1/confirmations
func (s *Server) handleListConfirmations(w http.ResponseWriter, r *http.Request) error {
	list, err := s.store.List()
	if err != nil {
		return err
	}
	if list == nil {
		list = []model.Confirmation{}
	}
	return writeJSON(w, http.StatusOK, list)
}
