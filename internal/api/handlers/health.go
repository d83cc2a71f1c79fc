package handlers

import (
	"net/http"
	"time"

	"github.com/watchkeeper/watchkeeper/internal/pipeline"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

// Health handles GET /api/health. It reports database reachability and the
// orchestrator's sweep state.
func Health(store *storage.Store, orch *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		dbStatus := "ok"
		code := http.StatusOK

		if err := store.Ping(); err != nil {
			status = "degraded"
			dbStatus = err.Error()
			code = http.StatusServiceUnavailable
		}

		var lastSweep string
		if t := orch.LastSweepAt(); !t.IsZero() {
			lastSweep = t.UTC().Format(time.RFC3339)
		}

		writeJSON(w, code, map[string]any{
			"status":        status,
			"database":      dbStatus,
			"sweep_running": orch.State() == pipeline.StateRunning,
			"last_sweep_at": lastSweep,
		})
	}
}
