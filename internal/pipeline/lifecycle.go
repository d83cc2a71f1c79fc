package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/watchkeeper/watchkeeper/internal/models"
	"github.com/watchkeeper/watchkeeper/internal/notify"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

// LifecycleStore is the persistence surface for status aging.
type LifecycleStore interface {
	AdvanceThreatStatuses(ctx context.Context, activeCutoff, monitoringCutoff time.Time) ([]storage.AdvancedThreat, error)
}

// LifecycleResult counts the transitions applied by one Advance call.
type LifecycleResult struct {
	ToMonitoring int `json:"updated_to_monitoring"`
	ToResolved   int `json:"updated_to_resolved"`
}

// Total returns the number of records touched.
func (r LifecycleResult) Total() int {
	return r.ToMonitoring + r.ToResolved
}

// LifecycleUpdater ages threat statuses: active records older than activeAge
// move to monitoring, monitoring records older than monitoringAge (both
// measured from creation) move to resolved. Transitions are monotone and
// resolved records are never touched.
type LifecycleUpdater struct {
	store         LifecycleStore
	notifier      notify.Notifier
	activeAge     time.Duration
	monitoringAge time.Duration
}

// NewLifecycleUpdater wires the status ager.
func NewLifecycleUpdater(store LifecycleStore, notifier notify.Notifier, activeAge, monitoringAge time.Duration) *LifecycleUpdater {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &LifecycleUpdater{
		store:         store,
		notifier:      notifier,
		activeAge:     activeAge,
		monitoringAge: monitoringAge,
	}
}

// Advance applies one aging batch and emits a best-effort StatusChange
// notification per transition.
func (u *LifecycleUpdater) Advance(ctx context.Context) (LifecycleResult, error) {
	now := time.Now().UTC()
	advanced, err := u.store.AdvanceThreatStatuses(ctx, now.Add(-u.activeAge), now.Add(-u.monitoringAge))
	if err != nil {
		return LifecycleResult{}, fmt.Errorf("advancing threat statuses: %w", err)
	}

	var result LifecycleResult
	for _, a := range advanced {
		switch a.To {
		case models.StatusMonitoring:
			result.ToMonitoring++
		case models.StatusResolved:
			result.ToResolved++
		}

		u.notifier.Notify(notify.Event{
			Type:      notify.EventStatusChange,
			Timestamp: now,
			ThreatID:  a.ID,
			Title:     a.Title,
			From:      a.From,
			To:        a.To,
		})
	}

	if result.Total() > 0 {
		slog.Info("threat statuses advanced",
			"to_monitoring", result.ToMonitoring,
			"to_resolved", result.ToResolved,
		)
	}

	return result, nil
}
