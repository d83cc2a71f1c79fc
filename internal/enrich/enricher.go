// Package enrich fills assessment fields the analysis engine left unset and
// serves the read-side classification queries (related records, trends).
package enrich

import (
	"context"
	"strings"

	"github.com/watchkeeper/watchkeeper/internal/analysis"
	"github.com/watchkeeper/watchkeeper/internal/models"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

// severityTiers are matched highest first; the first tier containing any
// keyword of the text wins. Nothing matching defaults to the lowest severity.
var severityTiers = []struct {
	level    int
	keywords []string
}{
	{9, []string{"critical", "imminent", "extreme danger", "evacuation", "mass casualty"}},
	{7, []string{"danger", "violent", "armed", "explosion", "attack", "killed"}},
	{5, []string{"warning", "alert", "protest", "demonstration", "disruption"}},
	{3, []string{"concern", "monitor", "potential", "possible", "reported"}},
}

// relevanceKeywords indicate applicability to field operations; each hit is
// worth ten relevance points before blending with severity.
var relevanceKeywords = []string{
	"church", "missionary", "religious", "christian", "faith", "worship",
	"foreigner", "westerner", "american", "european", "international",
	"evacuation", "embassy", "consulate", "visa", "passport", "travel advisory",
}

// ThreatReader is the read-side persistence surface the Enricher queries.
type ThreatReader interface {
	RelatedThreats(ctx context.Context, id string, limit int) ([]models.Threat, error)
	ThreatTrends(ctx context.Context, windowDays int) (*storage.TrendReport, error)
}

// Enricher fills unset assessment fields with keyword heuristics and exposes
// related-record and trend lookups.
type Enricher struct {
	reader ThreatReader
}

// New creates an Enricher backed by the given reader. A nil reader is
// acceptable when only Fill is used.
func New(reader ThreatReader) *Enricher {
	return &Enricher{reader: reader}
}

// Fill populates any unset assessment field using independent heuristics.
// It is idempotent: fields that are already set are never overwritten.
func (e *Enricher) Fill(a models.Assessment) models.Assessment {
	text := strings.ToLower(a.Title + "\n" + a.Description)

	if a.Severity == 0 {
		a.Severity = severityFor(text)
	}
	if a.Category == "" {
		a.Category = categoryFor(text)
	}
	if a.Relevance == 0 {
		a.Relevance = relevanceFor(text, a.Severity)
	}
	if a.Status == "" {
		a.Status = models.StatusActive
	}
	if a.Confidence == 0 {
		a.Confidence = 0.5
	}

	return a
}

// severityFor assigns severity from the fixed keyword tiers, highest
// matching tier first.
func severityFor(textLower string) int {
	for _, tier := range severityTiers {
		for _, kw := range tier.keywords {
			if strings.Contains(textLower, kw) {
				return tier.level
			}
		}
	}
	return 1
}

// categoryFor classifies text against the canonical category keyword table.
// With no hits at all, the default is security_incident.
func categoryFor(textLower string) models.Category {
	cat, hits := analysis.TopCategory(textLower)
	if hits == 0 {
		return models.CategorySecurityIncident
	}
	return cat
}

// relevanceFor blends a domain-keyword count with severity: each keyword hit
// is worth ten points (capped at 100), severity contributes five points per
// level, and the two are averaged into [10, 100].
func relevanceFor(textLower string, severity int) int {
	hits := 0
	for _, kw := range relevanceKeywords {
		if strings.Contains(textLower, kw) {
			hits++
		}
	}

	base := hits * 10
	if base > 100 {
		base = 100
	}

	blended := (base + severity*5) / 2
	if blended < 10 {
		blended = 10
	}
	if blended > 100 {
		blended = 100
	}
	return blended
}

// RelatedTo returns up to limit records sharing the category (and country,
// when the record has one) of the given record, excluding it, most recent
// first.
func (e *Enricher) RelatedTo(ctx context.Context, recordID string, limit int) ([]models.Threat, error) {
	return e.reader.RelatedThreats(ctx, recordID, limit)
}

// Trends aggregates threat activity over the trailing window.
func (e *Enricher) Trends(ctx context.Context, windowDays int) (*storage.TrendReport, error) {
	return e.reader.ThreatTrends(ctx, windowDays)
}
