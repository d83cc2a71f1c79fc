package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/watchkeeper/watchkeeper/internal/models"
)

// DailyCount is the number of threats created on a single day.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// TrendReport aggregates threat activity over a trailing window.
type TrendReport struct {
	DailyCounts  []DailyCount            `json:"daily_counts"`
	Categories   map[models.Category]int `json:"category_distribution"`
	Severities   map[int]int             `json:"severity_distribution"`
	TopCountries map[string]int          `json:"country_distribution"`
	TotalThreats int                     `json:"total_threats"`
	DaysAnalyzed int                     `json:"days_analyzed"`
}

// ThreatTrends aggregates threat counts by day, category, severity, and
// country over the last windowDays days.
func (s *Store) ThreatTrends(ctx context.Context, windowDays int) (*TrendReport, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)

	report := &TrendReport{
		Categories:   make(map[models.Category]int),
		Severities:   make(map[int]int),
		TopCountries: make(map[string]int),
		DaysAnalyzed: windowDays,
	}

	// Daily counts. Days with no threats get an explicit zero entry so the
	// series has one point per day in the window.
	counts := make(map[string]int)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(created_at), COUNT(*) FROM threats
		WHERE created_at >= ?
		GROUP BY date(created_at)`,
		formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("querying daily counts: %w", err)
	}
	for rows.Next() {
		var (
			day string
			n   int
		)
		if err := rows.Scan(&day, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning daily count: %w", err)
		}
		counts[day] = n
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating daily counts: %w", err)
	}
	rows.Close()

	end := time.Now().UTC()
	for day := cutoff; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		n := counts[key]
		report.DailyCounts = append(report.DailyCounts, DailyCount{Date: key, Count: n})
		report.TotalThreats += n
	}

	// Category histogram; every category gets an entry, zero included.
	for _, cat := range models.Categories {
		report.Categories[cat] = 0
	}
	rows, err = s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM threats
		WHERE created_at >= ?
		GROUP BY category`,
		formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("querying category distribution: %w", err)
	}
	for rows.Next() {
		var (
			cat string
			n   int
		)
		if err := rows.Scan(&cat, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning category count: %w", err)
		}
		report.Categories[models.Category(cat)] = n
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating category counts: %w", err)
	}
	rows.Close()

	// Severity histogram over the full 1..10 range.
	for sev := 1; sev <= 10; sev++ {
		report.Severities[sev] = 0
	}
	rows, err = s.db.QueryContext(ctx, `
		SELECT severity, COUNT(*) FROM threats
		WHERE created_at >= ?
		GROUP BY severity`,
		formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("querying severity distribution: %w", err)
	}
	for rows.Next() {
		var sev, n int
		if err := rows.Scan(&sev, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning severity count: %w", err)
		}
		report.Severities[sev] = n
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating severity counts: %w", err)
	}
	rows.Close()

	// Top five countries by threat count.
	rows, err = s.db.QueryContext(ctx, `
		SELECT country, COUNT(*) AS n FROM threats
		WHERE created_at >= ? AND country IS NOT NULL
		GROUP BY country ORDER BY n DESC LIMIT 5`,
		formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("querying country distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			country string
			n       int
		)
		if err := rows.Scan(&country, &n); err != nil {
			return nil, fmt.Errorf("scanning country count: %w", err)
		}
		report.TopCountries[country] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating country counts: %w", err)
	}

	return report, nil
}
