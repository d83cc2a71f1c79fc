package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

// GetSources handles GET /api/sources. It returns all configured sources.
func GetSources(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := store.GetAllSources(r.Context())
		if err != nil {
			slog.Error("failed to get sources", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get sources")
			return
		}

		writeJSON(w, http.StatusOK, sources)
	}
}

// ToggleSource handles PUT /api/sources/{id}. It flips the is_active flag
// for a source.
func ToggleSource(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var body struct {
			IsActive bool `json:"is_active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if err := store.ToggleSource(r.Context(), id, body.IsActive); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Source not found")
				return
			}
			slog.Error("failed to toggle source", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to toggle source")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}
