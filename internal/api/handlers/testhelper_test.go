package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/watchkeeper/watchkeeper/internal/models"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

// newTestStore creates an in-memory SQLite store with migrations applied.
// It registers a cleanup function to close the database when the test
// completes.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return storage.NewStore(db)
}

// createThreat inserts a threat with the given overrides applied to a
// baseline record.
func createThreat(t *testing.T, store *storage.Store, mutate func(*models.Threat)) models.Threat {
	t.Helper()

	threat := models.Threat{
		Title:           "Demonstration blocks main square",
		Severity:        5,
		Category:        models.CategoryPoliticalUnrest,
		Status:          models.StatusActive,
		ConfidenceScore: 0.7,
		Relevance:       60,
		Country:         "France",
		IsActive:        true,
	}
	if mutate != nil {
		mutate(&threat)
	}

	created, err := store.CreateThreat(context.Background(), threat)
	if err != nil {
		t.Fatalf("creating test threat: %v", err)
	}
	return created
}

// doRequest routes the request through a chi router so URL parameters
// resolve the same way they do in production.
func doRequest(t *testing.T, method, path string, body *string, route string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.MethodFunc(method, route, handler)

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(*body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
