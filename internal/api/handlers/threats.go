package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/watchkeeper/watchkeeper/internal/enrich"
	"github.com/watchkeeper/watchkeeper/internal/models"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

// ListThreats handles GET /api/threats with optional filtering by status,
// category, country, minimum severity/confidence, and a trailing day window.
func ListThreats(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := storage.ThreatFilter{
			Status:        models.Status(q.Get("status")),
			Category:      models.Category(q.Get("category")),
			Country:       q.Get("country"),
			MinSeverity:   queryInt(r, "min_severity", 0),
			MinConfidence: queryFloat(r, "min_confidence", 0),
			Days:          queryInt(r, "days", 0),
			ActiveOnly:    q.Get("active_only") != "false",
			Limit:         queryInt(r, "limit", 100),
			Offset:        queryInt(r, "skip", 0),
		}

		if filter.Status != "" && !filter.Status.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		if filter.Category != "" && !filter.Category.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid category")
			return
		}

		threats, err := store.ListThreats(r.Context(), filter)
		if err != nil {
			slog.Error("failed to list threats", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list threats")
			return
		}

		writeJSON(w, http.StatusOK, threats)
	}
}

// MapThreats handles GET /api/threats/map. It returns recent located
// threats for map display.
func MapThreats(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := storage.ThreatFilter{
			Status:      models.Status(r.URL.Query().Get("status")),
			MinSeverity: queryInt(r, "min_severity", 3),
			Days:        queryInt(r, "days", 7),
			ActiveOnly:  true,
			LocatedOnly: true,
			Limit:       queryInt(r, "limit", 500),
		}

		threats, err := store.ListThreats(r.Context(), filter)
		if err != nil {
			slog.Error("failed to list map threats", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list threats")
			return
		}

		writeJSON(w, http.StatusOK, threats)
	}
}

// GetThreat handles GET /api/threats/{id}.
func GetThreat(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		threat, err := store.GetThreat(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Threat not found")
				return
			}
			slog.Error("failed to get threat", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get threat")
			return
		}

		writeJSON(w, http.StatusOK, threat)
	}
}

// RelatedThreats handles GET /api/threats/{id}/related.
func RelatedThreats(enricher *enrich.Enricher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		limit := queryInt(r, "limit", 5)

		related, err := enricher.RelatedTo(r.Context(), id, limit)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Threat not found")
				return
			}
			slog.Error("failed to get related threats", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get related threats")
			return
		}

		writeJSON(w, http.StatusOK, related)
	}
}

// Trends handles GET /api/threats/trends.
func Trends(enricher *enrich.Enricher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := queryInt(r, "days", 30)

		report, err := enricher.Trends(r.Context(), days)
		if err != nil {
			slog.Error("failed to compute trends", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to compute trends")
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}
