package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/watchkeeper/watchkeeper/internal/enrich"
	"github.com/watchkeeper/watchkeeper/internal/models"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

func decodeThreats(t *testing.T, body []byte) []models.Threat {
	t.Helper()

	var threats []models.Threat
	if err := json.Unmarshal(body, &threats); err != nil {
		t.Fatalf("decoding threat list: %v\nbody: %s", err, body)
	}
	return threats
}

func TestListThreats(t *testing.T) {
	store := newTestStore(t)

	createThreat(t, store, nil)
	createThreat(t, store, func(th *models.Threat) {
		th.Title = "severe"
		th.Severity = 9
	})
	createThreat(t, store, func(th *models.Threat) {
		th.Title = "inactive"
		th.IsActive = false
	})

	t.Run("default filters to active", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/api/threats", nil, "/api/threats", ListThreats(store))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := decodeThreats(t, rec.Body.Bytes()); len(got) != 2 {
			t.Errorf("got %d threats, want 2 active", len(got))
		}
	})

	t.Run("active_only=false includes inactive", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/api/threats?active_only=false", nil, "/api/threats", ListThreats(store))
		if got := decodeThreats(t, rec.Body.Bytes()); len(got) != 3 {
			t.Errorf("got %d threats, want 3", len(got))
		}
	})

	t.Run("min_severity filter", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/api/threats?min_severity=8", nil, "/api/threats", ListThreats(store))
		got := decodeThreats(t, rec.Body.Bytes())
		if len(got) != 1 || got[0].Title != "severe" {
			t.Errorf("got %v, want only the severe threat", got)
		}
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/api/threats?status=escalated", nil, "/api/threats", ListThreats(store))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid category rejected", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/api/threats?category=alien_invasion", nil, "/api/threats", ListThreats(store))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestMapThreats_LocatedOnly(t *testing.T) {
	store := newTestStore(t)

	lat, lon := 48.85, 2.35
	createThreat(t, store, func(th *models.Threat) {
		th.Title = "located"
		th.Latitude = &lat
		th.Longitude = &lon
	})
	createThreat(t, store, func(th *models.Threat) {
		th.Title = "unlocated"
	})

	rec := doRequest(t, http.MethodGet, "/api/threats/map", nil, "/api/threats/map", MapThreats(store))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	got := decodeThreats(t, rec.Body.Bytes())
	if len(got) != 1 || got[0].Title != "located" {
		t.Errorf("got %v, want only the located threat", got)
	}
}

func TestGetThreat(t *testing.T) {
	store := newTestStore(t)
	created := createThreat(t, store, nil)

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/api/threats/"+created.ID, nil, "/api/threats/{id}", GetThreat(store))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got models.Threat
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decoding threat: %v", err)
		}
		if got.ID != created.ID {
			t.Errorf("ID = %q, want %q", got.ID, created.ID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/api/threats/nope", nil, "/api/threats/{id}", GetThreat(store))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestRelatedThreats(t *testing.T) {
	store := newTestStore(t)
	enricher := enrich.New(store)

	target := createThreat(t, store, nil)
	createThreat(t, store, func(th *models.Threat) { th.Title = "related one" })
	createThreat(t, store, func(th *models.Threat) {
		th.Title = "different category"
		th.Category = models.CategoryHealthEmergency
	})

	rec := doRequest(t, http.MethodGet, "/api/threats/"+target.ID+"/related", nil,
		"/api/threats/{id}/related", RelatedThreats(enricher))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	got := decodeThreats(t, rec.Body.Bytes())
	if len(got) != 1 || got[0].Title != "related one" {
		t.Errorf("got %v, want only the matching-category threat", got)
	}

	rec = doRequest(t, http.MethodGet, "/api/threats/nope/related", nil,
		"/api/threats/{id}/related", RelatedThreats(enricher))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown threat", rec.Code)
	}
}

func TestTrends(t *testing.T) {
	store := newTestStore(t)
	enricher := enrich.New(store)

	createThreat(t, store, nil)
	createThreat(t, store, func(th *models.Threat) { th.Severity = 8 })

	rec := doRequest(t, http.MethodGet, "/api/threats/trends?days=7", nil,
		"/api/threats/trends", Trends(enricher))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got storage.TrendReport
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding trend report: %v", err)
	}
	if got.DaysAnalyzed != 7 {
		t.Errorf("DaysAnalyzed = %d, want 7", got.DaysAnalyzed)
	}
	if got.TotalThreats != 2 {
		t.Errorf("TotalThreats = %d, want 2", got.TotalThreats)
	}
}
