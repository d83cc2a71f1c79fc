package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/watchkeeper/watchkeeper/internal/models"
)

// CreateFeedback inserts a feedback record and returns it with its generated
// ID and timestamp populated. When a threat ID is set, the threat must exist.
func (s *Store) CreateFeedback(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	if fb.ThreatID != "" {
		if _, err := s.GetThreat(ctx, fb.ThreatID); err != nil {
			return models.Feedback{}, err
		}
	}

	fb.ID = uuid.NewString()
	if fb.UserIdentifier == "" {
		fb.UserIdentifier = "anonymous"
	}
	fb.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (
			id, threat_id, user_identifier, kind, rating, comments, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fb.ID, nullString(fb.ThreatID), fb.UserIdentifier, string(fb.Kind),
		fb.Rating, nullString(fb.Comments), formatTime(fb.CreatedAt),
	)
	if err != nil {
		return models.Feedback{}, fmt.Errorf("inserting feedback: %w", err)
	}

	return fb, nil
}

// FeedbackFilter narrows a feedback listing. Zero values mean "no filter".
type FeedbackFilter struct {
	Kind           models.FeedbackKind
	MinRating      int
	UserIdentifier string
	Days           int // only feedback created within the last N days

	Limit  int
	Offset int
}

// ListFeedback returns feedback records matching the filter, most recent
// first.
func (s *Store) ListFeedback(ctx context.Context, f FeedbackFilter) ([]models.Feedback, error) {
	query := `SELECT id, threat_id, user_identifier, kind, rating, comments,
		created_at FROM feedback WHERE 1=1`
	var args []any

	if f.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(f.Kind))
	}
	if f.MinRating > 0 {
		query += " AND rating >= ?"
		args = append(args, f.MinRating)
	}
	if f.UserIdentifier != "" {
		query += " AND user_identifier = ?"
		args = append(args, f.UserIdentifier)
	}
	if f.Days > 0 {
		query += " AND created_at >= ?"
		args = append(args, formatTime(time.Now().UTC().AddDate(0, 0, -f.Days)))
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var list []models.Feedback
	for rows.Next() {
		var (
			fb        models.Feedback
			threatID  sql.NullString
			kind      string
			comments  sql.NullString
			createdAt string
		)
		err := rows.Scan(&fb.ID, &threatID, &fb.UserIdentifier, &kind,
			&fb.Rating, &comments, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		fb.ThreatID = threatID.String
		fb.Kind = models.FeedbackKind(kind)
		fb.Comments = comments.String
		fb.CreatedAt = parseTime(createdAt)
		list = append(list, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback: %w", err)
	}
	return list, nil
}

// UsageStats summarizes deployment activity over a trailing window, combining
// threat, source, and feedback counts for the trial dashboard.
type UsageStats struct {
	TotalThreats  int `json:"total_threats"`
	RecentThreats int `json:"recent_threats"`

	TotalSources  int `json:"total_sources"`
	ActiveSources int `json:"active_sources"`

	ArticlesCollected int `json:"articles_collected"`

	TotalFeedback  int                         `json:"total_feedback"`
	RecentFeedback int                         `json:"recent_feedback"`
	AverageRating  float64                     `json:"average_rating"`
	FeedbackByKind map[models.FeedbackKind]int `json:"feedback_by_type"`

	DaysAnalyzed int `json:"time_period_days"`
}

// Stats computes usage statistics over the last windowDays days.
func (s *Store) Stats(ctx context.Context, windowDays int) (*UsageStats, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	cutoff := formatTime(time.Now().UTC().AddDate(0, 0, -windowDays))

	stats := &UsageStats{
		FeedbackByKind: make(map[models.FeedbackKind]int),
		DaysAnalyzed:   windowDays,
	}

	counts := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&stats.TotalThreats, "SELECT COUNT(*) FROM threats", nil},
		{&stats.RecentThreats, "SELECT COUNT(*) FROM threats WHERE created_at >= ?", []any{cutoff}},
		{&stats.TotalSources, "SELECT COUNT(*) FROM sources", nil},
		{&stats.ActiveSources, "SELECT COUNT(*) FROM sources WHERE is_active = 1", nil},
		{&stats.ArticlesCollected, "SELECT COALESCE(SUM(total_collected), 0) FROM sources", nil},
		{&stats.TotalFeedback, "SELECT COUNT(*) FROM feedback", nil},
		{&stats.RecentFeedback, "SELECT COUNT(*) FROM feedback WHERE created_at >= ?", []any{cutoff}},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("querying stats: %w", err)
		}
	}

	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating), 0) FROM feedback").Scan(&stats.AverageRating)
	if err != nil {
		return nil, fmt.Errorf("querying average rating: %w", err)
	}

	for _, kind := range models.FeedbackKinds {
		stats.FeedbackByKind[kind] = 0
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, COUNT(*) FROM feedback GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("querying feedback by kind: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scanning feedback kind count: %w", err)
		}
		stats.FeedbackByKind[models.FeedbackKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback kinds: %w", err)
	}

	return stats, nil
}
