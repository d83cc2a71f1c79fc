package models

import "time"

// Category classifies a threat into one of six fixed buckets.
type Category string

const (
	CategoryPoliticalUnrest     Category = "political_unrest"
	CategoryTransportDisruption Category = "transport_disruption"
	CategoryWeatherEmergency    Category = "weather_emergency"
	CategorySecurityIncident    Category = "security_incident"
	CategoryEconomicImpact      Category = "economic_impact"
	CategoryHealthEmergency     Category = "health_emergency"
)

// Categories lists every category in its fixed declaration order. The order
// matters: keyword-scoring ties are broken by the earliest entry.
var Categories = []Category{
	CategoryPoliticalUnrest,
	CategoryTransportDisruption,
	CategoryWeatherEmergency,
	CategorySecurityIncident,
	CategoryEconomicImpact,
	CategoryHealthEmergency,
}

// Valid reports whether c is one of the six known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a threat. Transitions are monotone:
// active -> monitoring -> resolved, never backward.
type Status string

const (
	StatusActive     Status = "active"
	StatusMonitoring Status = "monitoring"
	StatusResolved   Status = "resolved"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusMonitoring, StatusResolved:
		return true
	}
	return false
}

// Threat is a persisted assessment record produced by the collection
// pipeline. Invariants: Severity in [1,10], ConfidenceScore in [0,1],
// Relevance in [0,100].
type Threat struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`

	// Location, all optional.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Country   string   `json:"country,omitempty"`
	City      string   `json:"city,omitempty"`

	// Assessment.
	Severity        int      `json:"severity"`
	Category        Category `json:"category"`
	Status          Status   `json:"status"`
	ConfidenceScore float64  `json:"confidence_score"`
	Relevance       int      `json:"relevance"`

	SourceURL  string `json:"source_url,omitempty"`
	SourceName string `json:"source_name,omitempty"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	ProcessedAt time.Time  `json:"processed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	IsActive bool `json:"is_active"`
}

// Assessment is the transient result of analyzing one article. Fields left
// at their zero value are considered unset and may be filled by the Enricher.
type Assessment struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Severity    int      `json:"severity"`
	Confidence  float64  `json:"confidence_score"`
	Relevance   int      `json:"relevance"`
	Status      Status   `json:"status"`
	Country     string   `json:"country,omitempty"`
	City        string   `json:"city,omitempty"`

	// Degraded marks an assessment produced by the keyword fallback rather
	// than the model.
	Degraded bool `json:"degraded"`
}
