package models

import "time"

// SourceKind selects the collection strategy for a source.
type SourceKind string

const (
	// KindFeed sources are RSS/Atom feeds.
	KindFeed SourceKind = "feed"
	// KindPage sources are HTML listing pages scraped for article links.
	KindPage SourceKind = "page"
)

// Source describes one external news source. Counters and LastCollectedAt
// are mutated only by the orchestrator after each collection attempt.
type Source struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Endpoint string     `json:"endpoint"`
	Kind     SourceKind `json:"kind"`
	Language string     `json:"language"`
	Country  string     `json:"country,omitempty"`

	ReliabilityScore float64 `json:"reliability_score"`
	IsActive         bool    `json:"is_active"`

	LastCollectedAt     *time.Time `json:"last_collected_at,omitempty"`
	CollectionFrequency int        `json:"collection_frequency_minutes"`
	RateLimitPerHour    int        `json:"rate_limit_per_hour"`

	// LinkSelector is the CSS rule used by page sources to discover article
	// links on the listing page. Ignored for feed sources.
	LinkSelector string `json:"link_selector,omitempty"`
	// ContentSelectors are tried in order when extracting an article body.
	ContentSelectors []string `json:"content_selectors,omitempty"`

	TotalCollected int `json:"total_articles_collected"`
	SuccessCount   int `json:"successful_collections"`
	FailCount      int `json:"failed_collections"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Due reports whether the source is due for collection at the given time.
// A source with no prior collection is always due.
func (s Source) Due(now time.Time) bool {
	if s.LastCollectedAt == nil {
		return true
	}
	interval := time.Duration(s.CollectionFrequency) * time.Minute
	return now.Sub(*s.LastCollectedAt) >= interval
}

// ArticleStub is a candidate article discovered by a collector. It lives
// only within a single sweep iteration and is never persisted.
type ArticleStub struct {
	Title       string
	URL         string
	PublishedAt string // raw feed value, parsed later if possible
	SourceName  string
}
