package analysis

import "github.com/watchkeeper/watchkeeper/internal/models"

// categoryKeywords is the canonical category→keyword table. Both the
// degraded-analysis fallback and the enrichment classifier score against
// this single table; keeping one copy avoids the two silently diverging.
//
// Scoring walks models.Categories in declaration order, so ties resolve to
// the earliest-declared category.
var categoryKeywords = map[models.Category][]string{
	models.CategoryPoliticalUnrest: {
		"protest", "riot", "demonstration", "unrest", "coup", "revolution",
		"political crisis", "civil unrest", "uprising",
	},
	models.CategoryTransportDisruption: {
		"delay", "cancel", "strike", "airport", "railway", "road block",
		"traffic", "transport", "travel warning", "border closed",
	},
	models.CategoryWeatherEmergency: {
		"storm", "flood", "hurricane", "tornado", "typhoon", "earthquake",
		"tsunami", "landslide", "wildfire", "extreme weather",
	},
	models.CategorySecurityIncident: {
		"attack", "terrorism", "shooting", "explosion", "bomb", "hostage",
		"kidnap", "threat", "security alert", "evacuation",
	},
	models.CategoryEconomicImpact: {
		"inflation", "recession", "currency", "economic crisis", "financial",
		"market crash", "bank", "shortage", "price increase", "devaluation",
	},
	models.CategoryHealthEmergency: {
		"outbreak", "epidemic", "pandemic", "virus", "disease", "infection",
		"quarantine", "health alert", "medical", "hospital",
	},
}

// CategoryScores counts keyword hits per category in the lowercased text.
func CategoryScores(textLower string) map[models.Category]int {
	scores := make(map[models.Category]int, len(models.Categories))
	for _, cat := range models.Categories {
		hits := 0
		for _, kw := range categoryKeywords[cat] {
			if containsKeyword(textLower, kw) {
				hits++
			}
		}
		scores[cat] = hits
	}
	return scores
}

// TopCategory returns the category with the most keyword hits and its hit
// count. Ties break toward the earliest entry in models.Categories.
func TopCategory(textLower string) (models.Category, int) {
	scores := CategoryScores(textLower)

	best := models.Categories[0]
	bestHits := scores[best]
	for _, cat := range models.Categories[1:] {
		if scores[cat] > bestHits {
			best = cat
			bestHits = scores[cat]
		}
	}
	return best, bestHits
}

// TotalHits sums keyword hits across all categories.
func TotalHits(textLower string) int {
	total := 0
	for _, hits := range CategoryScores(textLower) {
		total += hits
	}
	return total
}
