package models

// SweepStatus distinguishes how a sweep ended.
type SweepStatus string

const (
	// SweepCompleted means the sweep ran to the end (possibly with errors).
	SweepCompleted SweepStatus = "completed"
	// SweepAlreadyRunning means a sweep was requested while another was in
	// flight; no work was started.
	SweepAlreadyRunning SweepStatus = "already_running"
)

// SourceResult summarizes one per-source collection attempt within a sweep.
type SourceResult struct {
	SourceID          string  `json:"source_id"`
	SourceName        string  `json:"source_name"`
	ArticlesCollected int     `json:"articles_collected"`
	ArticlesProcessed int     `json:"articles_processed"`
	Errors            int     `json:"errors"`
	DurationSeconds   float64 `json:"duration_seconds"`
}

// RunReport is the sole structured output of a sweep.
type RunReport struct {
	Status            SweepStatus    `json:"status"`
	SourcesProcessed  int            `json:"sources_processed"`
	ArticlesCollected int            `json:"articles_collected"`
	ArticlesProcessed int            `json:"articles_processed"`
	Errors            int            `json:"errors"`
	DurationSeconds   float64        `json:"duration_seconds"`
	SourceResults     []SourceResult `json:"source_results,omitempty"`
}
