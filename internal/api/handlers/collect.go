package handlers

import (
	"log/slog"
	"net/http"

	"github.com/watchkeeper/watchkeeper/internal/models"
	"github.com/watchkeeper/watchkeeper/internal/pipeline"
)

// TriggerCollection handles POST /api/collect. It runs one sweep, optionally
// restricted to a single source via the source_id query parameter (which
// also bypasses the staleness check for that source). A sweep already in
// flight yields 409 with the distinguished already-running report.
func TriggerCollection(orch *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forcedID := r.URL.Query().Get("source_id")

		report := orch.RunSweep(r.Context(), forcedID)
		if report.Status == models.SweepAlreadyRunning {
			writeJSON(w, http.StatusConflict, report)
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}

// AdvanceLifecycle handles POST /api/lifecycle/advance. It runs one status
// aging batch.
func AdvanceLifecycle(updater *pipeline.LifecycleUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := updater.Advance(r.Context())
		if err != nil {
			slog.Error("failed to advance lifecycle", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to advance lifecycle")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
