package api

import (
	"net/http"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.SettingsService.GetSettings(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, settings)
}

// handleUpdateSettings merges the request body over the current settings, so
// a partial document only changes the keys it names.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.SettingsService.GetSettings(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}

	next := current
	if err := decodeJSON(r, &next); err != nil {
		handleError(w, r, err)
		return
	}

	saved, err := s.SettingsService.UpdateSettings(r.Context(), next)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, saved)
}
