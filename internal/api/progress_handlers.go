package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/vytor/part107/internal/errors"
	"github.com/vytor/part107/internal/logger"
)

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ProgressService.Summary(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleClearProgress(w http.ResponseWriter, r *http.Request) {
	if err := s.ProgressService.ClearAll(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	exp, err := s.ProgressService.Export(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("part107-study-backup-%s.json", exp.ExportDate.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	writeJSON(w, r, http.StatusOK, exp)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	limit := s.MaxImportBytes
	if limit <= 0 {
		limit = DefaultMaxImportBytes
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		log.Warn("failed to read import body: %v", err)
		handleError(w, r, &errors.AppError{
			Code:    errors.ErrCodeBadRequest,
			Message: fmt.Sprintf("backup must be at most %d bytes", limit),
			Status:  http.StatusRequestEntityTooLarge,
			Err:     err,
		})
		return
	}

	res, err := s.ProgressService.Import(r.Context(), data)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
