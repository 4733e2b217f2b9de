package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/part107/internal/errors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/modules", s.handleModules)
		r.Get("/cards", s.handleCards)
		r.Get("/cards/{id}/progress", s.handleCardProgress)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Get("/{id}", s.handleGetSession)
			r.Delete("/{id}", s.handleEndSession)
			r.Post("/{id}/flip", s.handleFlip)
			r.Post("/{id}/review", s.handleReview)
			r.Post("/{id}/shuffle", s.handleShuffle)
			r.Post("/{id}/reset", s.handleReset)
		})

		r.Route("/tests", func(r chi.Router) {
			r.Post("/", s.handleStartTest)
			r.Get("/history", s.handleHistory)
			r.Get("/history/{id}", s.handleAttempt)
			r.Get("/{id}", s.handleGetTest)
			r.Delete("/{id}", s.handleDiscardTest)
			r.Post("/{id}/answers", s.handleAnswer)
			r.Post("/{id}/submit", s.handleSubmitTest)
		})

		r.Get("/progress", s.handleProgress)
		r.Delete("/progress", s.handleClearProgress)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errors.NewNotFoundError("route", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, &errors.AppError{
			Code:    errors.ErrCodeBadRequest,
			Message: "method not allowed",
			Status:  http.StatusMethodNotAllowed,
		})
	})
	return r
}
