package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/watchkeeper/watchkeeper/internal/models"
)

const threatColumns = `id, title, description, content, latitude, longitude,
	country, city, severity, category, status, confidence_score, relevance,
	source_url, source_name, published_at, processed_at, created_at,
	updated_at, is_active`

// CreateThreat inserts a new threat record and returns it with its generated
// ID and timestamps populated.
func (s *Store) CreateThreat(ctx context.Context, t models.Threat) (models.Threat, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.ProcessedAt.IsZero() {
		t.ProcessedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO threats (
			id, title, description, content, latitude, longitude, country,
			city, severity, category, status, confidence_score, relevance,
			source_url, source_name, published_at, processed_at, created_at,
			updated_at, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Content, t.Latitude, t.Longitude,
		nullString(t.Country), nullString(t.City), t.Severity,
		string(t.Category), string(t.Status), t.ConfidenceScore, t.Relevance,
		nullString(t.SourceURL), nullString(t.SourceName),
		formatTimePtr(t.PublishedAt), formatTime(t.ProcessedAt),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), t.IsActive,
	)
	if err != nil {
		return models.Threat{}, fmt.Errorf("inserting threat: %w", err)
	}

	return t, nil
}

// GetThreat returns a single threat by ID.
func (s *Store) GetThreat(ctx context.Context, id string) (models.Threat, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+threatColumns+" FROM threats WHERE id = ?", id)

	t, err := scanThreat(row)
	if err == sql.ErrNoRows {
		return models.Threat{}, ErrNotFound
	}
	if err != nil {
		return models.Threat{}, fmt.Errorf("querying threat %q: %w", id, err)
	}
	return t, nil
}

// ThreatFilter narrows ListThreats results. Zero values mean "no filter".
type ThreatFilter struct {
	Status        models.Status
	Category      models.Category
	Country       string // substring match, case-insensitive
	MinSeverity   int
	MinConfidence float64
	Days          int // only threats created within the last N days
	ActiveOnly    bool
	LocatedOnly   bool // only threats with coordinates (map display)
	Limit         int
	Offset        int
}

// ListThreats returns threats matching the filter, most recent first.
func (s *Store) ListThreats(ctx context.Context, f ThreatFilter) ([]models.Threat, error) {
	var (
		conds []string
		args  []any
	)

	if f.ActiveOnly {
		conds = append(conds, "is_active = 1")
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Country != "" {
		conds = append(conds, "country LIKE ? COLLATE NOCASE")
		args = append(args, "%"+f.Country+"%")
	}
	if f.MinSeverity > 0 {
		conds = append(conds, "severity >= ?")
		args = append(args, f.MinSeverity)
	}
	if f.MinConfidence > 0 {
		conds = append(conds, "confidence_score >= ?")
		args = append(args, f.MinConfidence)
	}
	if f.Days > 0 {
		conds = append(conds, "created_at >= ?")
		args = append(args, formatTime(time.Now().AddDate(0, 0, -f.Days)))
	}
	if f.LocatedOnly {
		conds = append(conds, "latitude IS NOT NULL AND longitude IS NOT NULL")
	}

	query := "SELECT " + threatColumns + " FROM threats"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying threats: %w", err)
	}
	defer rows.Close()

	return scanThreats(rows)
}

// RelatedThreats returns up to limit active threats sharing the category of
// the given threat (and its country, when set), excluding the threat itself,
// most recent first.
func (s *Store) RelatedThreats(ctx context.Context, id string, limit int) ([]models.Threat, error) {
	target, err := s.GetThreat(ctx, id)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 5
	}

	query := "SELECT " + threatColumns + ` FROM threats
		WHERE id != ? AND category = ? AND is_active = 1`
	args := []any{id, string(target.Category)}

	if target.Country != "" {
		query += " AND country = ?"
		args = append(args, target.Country)
	}

	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying related threats: %w", err)
	}
	defer rows.Close()

	return scanThreats(rows)
}

// AdvancedThreat records one status transition applied by a lifecycle batch.
type AdvancedThreat struct {
	ID    string
	Title string
	From  models.Status
	To    models.Status
}

// AdvanceThreatStatuses ages threat statuses in a single batch: active
// threats created before activeCutoff move to monitoring, and monitoring
// threats created before monitoringCutoff move to resolved. Both age checks
// run against created_at. Resolved threats are never touched and no
// transition ever runs backward.
func (s *Store) AdvanceThreatStatuses(ctx context.Context, activeCutoff, monitoringCutoff time.Time) ([]AdvancedThreat, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	// Resolve first so a record past both cutoffs moves monitoring→resolved
	// in one batch only if it was already monitoring; a stale active record
	// advances one step per batch.
	resolved, err := transitionBatch(ctx, tx, models.StatusMonitoring, models.StatusResolved, monitoringCutoff)
	if err != nil {
		return nil, err
	}
	monitoring, err := transitionBatch(ctx, tx, models.StatusActive, models.StatusMonitoring, activeCutoff)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status batch: %w", err)
	}

	return append(resolved, monitoring...), nil
}

// transitionBatch moves every threat in `from` status created before cutoff
// into the `to` status, returning the affected records.
func transitionBatch(ctx context.Context, tx *sql.Tx, from, to models.Status, cutoff time.Time) ([]AdvancedThreat, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, title FROM threats WHERE status = ? AND created_at < ?",
		string(from), formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("selecting %s threats: %w", from, err)
	}

	var advanced []AdvancedThreat
	for rows.Next() {
		var a AdvancedThreat
		if err := rows.Scan(&a.ID, &a.Title); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning threat: %w", err)
		}
		a.From, a.To = from, to
		advanced = append(advanced, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating threats: %w", err)
	}
	rows.Close()

	if len(advanced) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE threats SET status = ?, updated_at = ? WHERE status = ? AND created_at < ?",
		string(to), formatTime(time.Now()), string(from), formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("advancing %s threats: %w", from, err)
	}

	return advanced, nil
}

func scanThreat(row rowScanner) (models.Threat, error) {
	var (
		t           models.Threat
		description sql.NullString
		content     sql.NullString
		country     sql.NullString
		city        sql.NullString
		category    string
		status      string
		sourceURL   sql.NullString
		sourceName  sql.NullString
		publishedAt *string
		processedAt *string
		createdAt   string
		updatedAt   string
	)

	err := row.Scan(
		&t.ID, &t.Title, &description, &content, &t.Latitude, &t.Longitude,
		&country, &city, &t.Severity, &category, &status,
		&t.ConfidenceScore, &t.Relevance, &sourceURL, &sourceName,
		&publishedAt, &processedAt, &createdAt, &updatedAt, &t.IsActive,
	)
	if err != nil {
		return models.Threat{}, err
	}

	t.Description = description.String
	t.Content = content.String
	t.Country = country.String
	t.City = city.String
	t.Category = models.Category(category)
	t.Status = models.Status(status)
	t.SourceURL = sourceURL.String
	t.SourceName = sourceName.String
	t.PublishedAt = parseTimePtr(publishedAt)
	if p := parseTimePtr(processedAt); p != nil {
		t.ProcessedAt = *p
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	return t, nil
}

func scanThreats(rows *sql.Rows) ([]models.Threat, error) {
	var threats []models.Threat
	for rows.Next() {
		t, err := scanThreat(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning threat: %w", err)
		}
		threats = append(threats, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating threats: %w", err)
	}
	return threats, nil
}
