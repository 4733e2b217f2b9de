package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/part107/internal/errors"
	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/services"
)

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.StudyService.ListModules(r.Context()))
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cards, err := s.StudyService.ListCards(r.Context(), q.Get("module"), q.Get("difficulty"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cards)
}

func (s *Server) handleCardProgress(w http.ResponseWriter, r *http.Request) {
	view, err := s.StudyService.CardProgress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req services.StartSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	view, err := s.StudyService.StartSession(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Debug("study session created: id=%s", view.ID)
	w.Header().Set("Location", "/api/sessions/"+view.ID)
	writeJSON(w, r, http.StatusCreated, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.StudyService.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.StudyService.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	view, err := s.StudyService.Flip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

type reviewRequest struct {
	Quality *int `json:"quality"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Quality == nil {
		handleError(w, r, errors.NewValidationError("quality", "required"))
		return
	}

	res, err := s.StudyService.Review(r.Context(), chi.URLParam(r, "id"), *req.Quality)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	view, err := s.StudyService.Shuffle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	view, err := s.StudyService.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}
