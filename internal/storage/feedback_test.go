package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/watchkeeper/watchkeeper/internal/models"
)

func seedFeedback(t *testing.T, store *Store, mutate func(*models.Feedback)) models.Feedback {
	t.Helper()

	fb := models.Feedback{
		UserIdentifier: "tester-1",
		Kind:           models.FeedbackAccuracy,
		Rating:         4,
		Comments:       "severity looked right",
	}
	if mutate != nil {
		mutate(&fb)
	}

	created, err := store.CreateFeedback(context.Background(), fb)
	if err != nil {
		t.Fatalf("CreateFeedback error: %v", err)
	}
	return created
}

func TestCreateFeedback_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	threat := seedThreat(t, store, nil)
	created := seedFeedback(t, store, func(fb *models.Feedback) {
		fb.ThreatID = threat.ID
		fb.Kind = models.FeedbackFalsePositive
		fb.Rating = 2
	})

	if created.ID == "" {
		t.Fatal("CreateFeedback did not assign an ID")
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreateFeedback did not stamp CreatedAt")
	}

	list, err := store.ListFeedback(ctx, FeedbackFilter{})
	if err != nil {
		t.Fatalf("ListFeedback error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListFeedback returned %d records, want 1", len(list))
	}
	got := list[0]
	if got.ThreatID != threat.ID {
		t.Errorf("ThreatID = %q, want %q", got.ThreatID, threat.ID)
	}
	if got.Kind != models.FeedbackFalsePositive || got.Rating != 2 {
		t.Errorf("got kind=%q rating=%d, want false_positive/2", got.Kind, got.Rating)
	}
}

func TestCreateFeedback_UnknownThreat(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateFeedback(context.Background(), models.Feedback{
		ThreatID: "no-such-threat",
		Kind:     models.FeedbackAccuracy,
		Rating:   3,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("CreateFeedback error = %v, want ErrNotFound", err)
	}
}

func TestCreateFeedback_DefaultsUserIdentifier(t *testing.T) {
	store := newTestStore(t)

	created := seedFeedback(t, store, func(fb *models.Feedback) {
		fb.UserIdentifier = ""
	})
	if created.UserIdentifier != "anonymous" {
		t.Errorf("UserIdentifier = %q, want anonymous", created.UserIdentifier)
	}
}

func TestListFeedback_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedFeedback(t, store, func(fb *models.Feedback) {
		fb.UserIdentifier = "alice"
		fb.Kind = models.FeedbackAccuracy
		fb.Rating = 5
	})
	seedFeedback(t, store, func(fb *models.Feedback) {
		fb.UserIdentifier = "bob"
		fb.Kind = models.FeedbackMissingThreat
		fb.Rating = 1
	})

	tests := []struct {
		name   string
		filter FeedbackFilter
		want   int
	}{
		{"no filter", FeedbackFilter{}, 2},
		{"by kind", FeedbackFilter{Kind: models.FeedbackAccuracy}, 1},
		{"min rating", FeedbackFilter{MinRating: 3}, 1},
		{"by user", FeedbackFilter{UserIdentifier: "bob"}, 1},
		{"recent window", FeedbackFilter{Days: 1}, 2},
		{"limit", FeedbackFilter{Limit: 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListFeedback(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListFeedback error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults error: %v", err)
	}
	seedThreat(t, store, nil)
	seedFeedback(t, store, func(fb *models.Feedback) { fb.Rating = 5 })
	seedFeedback(t, store, func(fb *models.Feedback) {
		fb.Kind = models.FeedbackRelevance
		fb.Rating = 3
	})

	stats, err := store.Stats(ctx, 7)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}

	if stats.TotalThreats != 1 || stats.RecentThreats != 1 {
		t.Errorf("threats = %d/%d, want 1/1", stats.TotalThreats, stats.RecentThreats)
	}
	if stats.TotalSources != 2 || stats.ActiveSources != 2 {
		t.Errorf("sources = %d/%d, want 2/2", stats.TotalSources, stats.ActiveSources)
	}
	if stats.TotalFeedback != 2 || stats.RecentFeedback != 2 {
		t.Errorf("feedback = %d/%d, want 2/2", stats.TotalFeedback, stats.RecentFeedback)
	}
	if stats.AverageRating != 4 {
		t.Errorf("AverageRating = %v, want 4", stats.AverageRating)
	}
	if len(stats.FeedbackByKind) != len(models.FeedbackKinds) {
		t.Errorf("FeedbackByKind has %d entries, want %d", len(stats.FeedbackByKind), len(models.FeedbackKinds))
	}
	if stats.FeedbackByKind[models.FeedbackAccuracy] != 1 {
		t.Errorf("accuracy count = %d, want 1", stats.FeedbackByKind[models.FeedbackAccuracy])
	}
	if stats.FeedbackByKind[models.FeedbackFalsePositive] != 0 {
		t.Errorf("false_positive count = %d, want 0", stats.FeedbackByKind[models.FeedbackFalsePositive])
	}
	if stats.DaysAnalyzed != 7 {
		t.Errorf("DaysAnalyzed = %d, want 7", stats.DaysAnalyzed)
	}
}

func TestStats_DefaultWindow(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.Stats(context.Background(), 0)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.DaysAnalyzed != 7 {
		t.Errorf("DaysAnalyzed = %d, want default 7", stats.DaysAnalyzed)
	}
}
