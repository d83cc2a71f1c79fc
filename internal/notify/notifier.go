// Package notify delivers best-effort pipeline events to interested
// listeners. Delivery is at-most-effort: failures are logged and discarded,
// and pipeline correctness never depends on a notification landing.
package notify

import (
	"log/slog"
	"time"

	"github.com/watchkeeper/watchkeeper/internal/models"
)

// EventType discriminates pipeline events.
type EventType string

const (
	// EventNewThreat announces a freshly persisted threat record.
	EventNewThreat EventType = "new_threat"
	// EventStatusChange announces a lifecycle status transition.
	EventStatusChange EventType = "status_change"
)

// Event is one notification payload.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Threat    *models.Threat `json:"threat,omitempty"`

	// Status transition details, set for EventStatusChange.
	ThreatID string        `json:"threat_id,omitempty"`
	Title    string        `json:"title,omitempty"`
	From     models.Status `json:"from,omitempty"`
	To       models.Status `json:"to,omitempty"`
}

// Notifier is the fire-and-forget event sink the pipeline emits into.
// Implementations must swallow their own delivery failures.
type Notifier interface {
	Notify(event Event)
}

// LogNotifier writes events to the structured log. It is the fallback sink
// when no client-facing transport is wired.
type LogNotifier struct{}

// Notify logs the event.
func (LogNotifier) Notify(event Event) {
	switch event.Type {
	case EventNewThreat:
		if event.Threat != nil {
			slog.Info("new threat",
				"id", event.Threat.ID,
				"title", event.Threat.Title,
				"severity", event.Threat.Severity,
				"category", event.Threat.Category,
			)
		}
	case EventStatusChange:
		slog.Info("threat status changed",
			"id", event.ThreatID,
			"from", event.From,
			"to", event.To,
		)
	}
}
