package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/watchkeeper/watchkeeper/internal/api/handlers"
	"github.com/watchkeeper/watchkeeper/internal/enrich"
	"github.com/watchkeeper/watchkeeper/internal/notify"
	"github.com/watchkeeper/watchkeeper/internal/pipeline"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

// NewRouter creates and configures the HTTP router with all API routes and
// the websocket endpoint for live threat notifications.
func NewRouter(store *storage.Store, orch *pipeline.Orchestrator, updater *pipeline.LifecycleUpdater, enricher *enrich.Enricher, hub *notify.Hub) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)

	// API sub-router.
	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handlers.Health(store, orch))

		api.Get("/threats", handlers.ListThreats(store))
		api.Get("/threats/map", handlers.MapThreats(store))
		api.Get("/threats/trends", handlers.Trends(enricher))
		api.Get("/threats/{id}", handlers.GetThreat(store))
		api.Get("/threats/{id}/related", handlers.RelatedThreats(enricher))

		api.Get("/sources", handlers.GetSources(store))
		api.Put("/sources/{id}", handlers.ToggleSource(store))

		api.Post("/feedback", handlers.SubmitFeedback(store))
		api.Get("/feedback", handlers.ListFeedback(store))
		api.Get("/stats", handlers.Stats(store))

		api.Post("/collect", handlers.TriggerCollection(orch))
		api.Post("/lifecycle/advance", handlers.AdvanceLifecycle(updater))
	})

	// Websocket endpoint for live threat and status-change events.
	r.Get("/ws", hub.ServeWS)

	return r
}
