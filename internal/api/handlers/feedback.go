package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/watchkeeper/watchkeeper/internal/models"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

// SubmitFeedback handles POST /api/feedback. Trial users rate the quality of
// assessments; the rating must be in [1,5] and an optional threat_id must
// reference an existing threat.
func SubmitFeedback(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fb models.Feedback
		if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if !fb.Kind.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid feedback type")
			return
		}
		if fb.Rating < 1 || fb.Rating > 5 {
			writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
			return
		}

		created, err := store.CreateFeedback(r.Context(), fb)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Threat not found")
				return
			}
			slog.Error("failed to create feedback", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to create feedback")
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

// ListFeedback handles GET /api/feedback with optional filtering by type,
// minimum rating, user identifier, and a trailing day window.
func ListFeedback(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := storage.FeedbackFilter{
			Kind:           models.FeedbackKind(q.Get("feedback_type")),
			MinRating:      queryInt(r, "min_rating", 0),
			UserIdentifier: q.Get("user_identifier"),
			Days:           queryInt(r, "days", 0),
			Limit:          queryInt(r, "limit", 100),
			Offset:         queryInt(r, "skip", 0),
		}

		if filter.Kind != "" && !filter.Kind.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid feedback type")
			return
		}

		feedback, err := store.ListFeedback(r.Context(), filter)
		if err != nil {
			slog.Error("failed to list feedback", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list feedback")
			return
		}

		writeJSON(w, http.StatusOK, feedback)
	}
}

// Stats handles GET /api/stats. It returns deployment usage statistics over
// the last N days (default 7).
func Stats(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := queryInt(r, "days", 7)

		stats, err := store.Stats(r.Context(), days)
		if err != nil {
			slog.Error("failed to compute stats", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to compute stats")
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}
