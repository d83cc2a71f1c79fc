package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/watchkeeper/watchkeeper/internal/models"
)

// defaultSources defines the news sources seeded into a new database. The
// selector profiles come from the collection targets this deployment tracks.
var defaultSources = []models.Source{
	{
		Name:                "BBC Europe",
		Endpoint:            "http://feeds.bbci.co.uk/news/world/europe/rss.xml",
		Kind:                models.KindFeed,
		Language:            "en",
		ReliabilityScore:    0.9,
		IsActive:            true,
		CollectionFrequency: 30,
		RateLimitPerHour:    60,
		ContentSelectors: []string{
			"article [data-component='text-block']",
			".article__body-content",
		},
	},
	{
		Name:                "Reuters Europe",
		Endpoint:            "https://www.reuters.com/world/europe/",
		Kind:                models.KindPage,
		Language:            "en",
		ReliabilityScore:    0.9,
		IsActive:            true,
		CollectionFrequency: 30,
		RateLimitPerHour:    60,
		LinkSelector:        ".story-card a",
		ContentSelectors: []string{
			".article-body__content__17Yit",
			".paywall-article",
			".article-body",
		},
	},
}

// SeedDefaults inserts the default sources if the sources table is empty.
func (s *Store) SeedDefaults(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources").Scan(&count); err != nil {
		return fmt.Errorf("counting sources: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, src := range defaultSources {
		if _, err := s.CreateSource(ctx, src); err != nil {
			return fmt.Errorf("seeding source %q: %w", src.Name, err)
		}
	}
	return nil
}

// CreateSource inserts a new source and returns it with its generated ID and
// timestamps populated.
func (s *Store) CreateSource(ctx context.Context, src models.Source) (models.Source, error) {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	src.CreatedAt = now
	src.UpdatedAt = now

	selectors, err := json.Marshal(src.ContentSelectors)
	if err != nil {
		return models.Source{}, fmt.Errorf("encoding content selectors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sources (
			id, name, endpoint, kind, language, country, reliability_score,
			is_active, last_collected_at, collection_frequency,
			rate_limit_per_hour, link_selector, content_selectors,
			total_collected, success_count, fail_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.Name, src.Endpoint, string(src.Kind), src.Language,
		nullString(src.Country), src.ReliabilityScore, src.IsActive,
		formatTimePtr(src.LastCollectedAt), src.CollectionFrequency,
		src.RateLimitPerHour, src.LinkSelector, string(selectors),
		src.TotalCollected, src.SuccessCount, src.FailCount,
		formatTime(src.CreatedAt), formatTime(src.UpdatedAt),
	)
	if err != nil {
		return models.Source{}, fmt.Errorf("inserting source: %w", err)
	}

	return src, nil
}

const sourceColumns = `id, name, endpoint, kind, language, country,
	reliability_score, is_active, last_collected_at, collection_frequency,
	rate_limit_per_hour, link_selector, content_selectors,
	total_collected, success_count, fail_count, created_at, updated_at`

// GetAllSources returns every source regardless of active status, ordered
// by name.
func (s *Store) GetAllSources(ctx context.Context) ([]models.Source, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sourceColumns+" FROM sources ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying all sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// ListEligibleSources returns the active sources a sweep should consider.
// When forcedID is non-empty, only that source is returned; forcing bypasses
// the staleness check, not the active flag, so a disabled source stays out.
func (s *Store) ListEligibleSources(ctx context.Context, forcedID string) ([]models.Source, error) {
	query := "SELECT " + sourceColumns + " FROM sources WHERE is_active = 1 ORDER BY name"
	args := []any{}
	if forcedID != "" {
		query = "SELECT " + sourceColumns + " FROM sources WHERE is_active = 1 AND id = ?"
		args = append(args, forcedID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying eligible sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// GetSource returns a single source by ID.
func (s *Store) GetSource(ctx context.Context, id string) (models.Source, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sourceColumns+" FROM sources WHERE id = ?", id)

	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return models.Source{}, ErrNotFound
	}
	if err != nil {
		return models.Source{}, fmt.Errorf("querying source %q: %w", id, err)
	}
	return src, nil
}

// ToggleSource sets the is_active flag on a source.
func (s *Store) ToggleSource(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sources SET is_active = ?, updated_at = ? WHERE id = ?",
		active, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("toggling source %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CounterDelta carries the per-attempt counter updates applied to a source
// after each collection attempt.
type CounterDelta struct {
	Collected int
	Successes int
	Failures  int
}

// UpdateSourceCounters records a collection attempt: bumps counters and
// stamps last_collected_at with the current time.
func (s *Store) UpdateSourceCounters(ctx context.Context, id string, delta CounterDelta) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sources SET
			total_collected   = total_collected + ?,
			success_count     = success_count + ?,
			fail_count        = fail_count + ?,
			last_collected_at = ?,
			updated_at        = ?
		WHERE id = ?`,
		delta.Collected, delta.Successes, delta.Failures,
		formatTime(time.Now()), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("updating source counters for %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (models.Source, error) {
	var (
		src             models.Source
		kind            string
		country         sql.NullString
		lastCollectedAt *string
		selectorsJSON   string
		createdAt       string
		updatedAt       string
	)

	err := row.Scan(
		&src.ID, &src.Name, &src.Endpoint, &kind, &src.Language, &country,
		&src.ReliabilityScore, &src.IsActive, &lastCollectedAt,
		&src.CollectionFrequency, &src.RateLimitPerHour, &src.LinkSelector,
		&selectorsJSON, &src.TotalCollected, &src.SuccessCount,
		&src.FailCount, &createdAt, &updatedAt,
	)
	if err != nil {
		return models.Source{}, err
	}

	src.Kind = models.SourceKind(kind)
	src.Country = country.String
	src.LastCollectedAt = parseTimePtr(lastCollectedAt)
	src.CreatedAt = parseTime(createdAt)
	src.UpdatedAt = parseTime(updatedAt)

	if err := json.Unmarshal([]byte(selectorsJSON), &src.ContentSelectors); err != nil {
		return models.Source{}, fmt.Errorf("decoding content selectors for %q: %w", src.ID, err)
	}

	return src, nil
}

func scanSources(rows *sql.Rows) ([]models.Source, error) {
	var sources []models.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
