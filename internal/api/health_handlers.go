package api

import (
	"net/http"

	"github.com/vytor/part107/internal/logger"
)

// handleHealth is the liveness probe. It always returns 200 OK.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady is the readiness probe. It returns 503 while the store is
// unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if s.Store != nil {
		if err := s.Store.Ping(r.Context()); err != nil {
			log.Warn("readiness check failed - store: %v", err)
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
