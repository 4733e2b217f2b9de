package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/part107/internal/errors"
	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/services"
)

func (s *Server) handleStartTest(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req services.StartTestRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	view, err := s.PracticeService.StartTest(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Debug("practice test created: id=%s", view.ID)
	w.Header().Set("Location", "/api/tests/"+view.ID)
	writeJSON(w, r, http.StatusCreated, view)
}

func (s *Server) handleGetTest(w http.ResponseWriter, r *http.Request) {
	view, err := s.PracticeService.GetTest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleDiscardTest(w http.ResponseWriter, r *http.Request) {
	if err := s.PracticeService.DiscardTest(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type answerRequest struct {
	Index  *int `json:"index"`
	Option *int `json:"option"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Index == nil {
		handleError(w, r, errors.NewValidationError("index", "required"))
		return
	}
	if req.Option == nil {
		handleError(w, r, errors.NewValidationError("option", "required"))
		return
	}

	view, err := s.PracticeService.Answer(r.Context(), chi.URLParam(r, "id"), *req.Index, *req.Option)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleSubmitTest(w http.ResponseWriter, r *http.Request) {
	view, err := s.PracticeService.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}
	since, err := queryTime(r, "since")
	if err != nil {
		handleError(w, r, err)
		return
	}

	attempts, err := s.PracticeService.History(r.Context(), models.HistoryFilter{
		ModuleID: r.URL.Query().Get("module"),
		Since:    since,
		Limit:    limit,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, attempts)
}

func (s *Server) handleAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := s.PracticeService.GetAttempt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, attempt)
}
