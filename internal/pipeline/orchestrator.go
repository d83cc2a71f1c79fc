// Package pipeline drives the collection sweep and the status lifecycle.
//
// A sweep walks eligible sources strictly sequentially: the target hardware
// profile cannot absorb parallel fetching and analysis, and the inference
// service behind the analysis engine is a single shared resource. Exactly
// one sweep may be in flight; a concurrent trigger is rejected, not queued.
package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/watchkeeper/watchkeeper/internal/collect"
	"github.com/watchkeeper/watchkeeper/internal/models"
	"github.com/watchkeeper/watchkeeper/internal/notify"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

// State is the orchestrator's reentrancy token.
type State int32

const (
	// StateIdle means no sweep is in flight.
	StateIdle State = iota
	// StateRunning means a sweep is in flight; triggers are rejected.
	StateRunning
)

// Store is the persistence surface the orchestrator writes through.
type Store interface {
	ListEligibleSources(ctx context.Context, forcedID string) ([]models.Source, error)
	CreateThreat(ctx context.Context, t models.Threat) (models.Threat, error)
	UpdateSourceCounters(ctx context.Context, id string, delta storage.CounterDelta) error
}

// Analyzer assesses article text. Implementations never fail: degraded
// assessments substitute for every failure mode.
type Analyzer interface {
	Analyze(ctx context.Context, text, sourceName, articleURL string) models.Assessment
	Geolocate(ctx context.Context, country, city string) (lat, lon *float64)
}

// Filler completes assessment fields the analyzer left unset.
type Filler interface {
	Fill(a models.Assessment) models.Assessment
}

// CollectorRegistry resolves a source to its concrete collector.
type CollectorRegistry interface {
	For(src models.Source) collect.Collector
}

// Threshold filter: assessments below either bound are processed but never
// persisted.
const (
	minSeverity  = 2
	minRelevance = 20
)

// maxContentChars bounds the persisted content excerpt.
const maxContentChars = 10000

// Orchestrator runs collection sweeps across eligible sources.
type Orchestrator struct {
	store       Store
	registry    CollectorRegistry
	engine      Analyzer
	enricher    Filler
	notifier    notify.Notifier
	sourceDelay time.Duration

	state       atomic.Int32
	lastSweepAt atomic.Int64 // unix seconds of last completed sweep, 0 = never
}

// NewOrchestrator wires the sweep driver. sourceDelay is the fixed pause
// between consecutive sources within a sweep.
func NewOrchestrator(store Store, registry CollectorRegistry, engine Analyzer, enricher Filler, notifier notify.Notifier, sourceDelay time.Duration) *Orchestrator {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Orchestrator{
		store:       store,
		registry:    registry,
		engine:      engine,
		enricher:    enricher,
		notifier:    notifier,
		sourceDelay: sourceDelay,
	}
}

// State returns the current reentrancy state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// LastSweepAt returns the completion time of the most recent sweep, or the
// zero time if none has completed.
func (o *Orchestrator) LastSweepAt() time.Time {
	sec := o.lastSweepAt.Load()
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// RunSweep performs one sequential pass over eligible sources. When
// forcedSourceID is non-empty, only that source is collected and its
// staleness check is bypassed. A call arriving while another sweep is in
// flight returns the distinguished already-running report without starting
// any work. RunSweep always returns a report; nothing inside a sweep is
// fatal.
func (o *Orchestrator) RunSweep(ctx context.Context, forcedSourceID string) *models.RunReport {
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		slog.Warn("collection already running, skipping")
		return &models.RunReport{Status: models.SweepAlreadyRunning}
	}
	defer o.state.Store(int32(StateIdle))

	start := time.Now()
	report := &models.RunReport{Status: models.SweepCompleted}

	sources, err := o.store.ListEligibleSources(ctx, forcedSourceID)
	if err != nil {
		slog.Error("failed to list sources", "error", err)
		report.Errors++
		report.DurationSeconds = time.Since(start).Seconds()
		return report
	}

	if len(sources) == 0 {
		slog.Warn("no eligible sources found", "forced_id", forcedSourceID)
		report.DurationSeconds = time.Since(start).Seconds()
		return report
	}

	for _, src := range sources {
		// The stop signal is observed only at source-loop boundaries:
		// in-flight per-article work runs to completion.
		if ctx.Err() != nil {
			slog.Info("sweep interrupted", "remaining_sources", len(sources)-report.SourcesProcessed)
			break
		}

		if forcedSourceID == "" && !src.Due(time.Now()) {
			slog.Info("skipping source, collected recently",
				"source", src.Name,
				"last_collected_at", src.LastCollectedAt,
			)
			continue
		}

		result := o.collectFromSource(ctx, src)
		report.SourceResults = append(report.SourceResults, result)
		report.SourcesProcessed++
		report.ArticlesCollected += result.ArticlesCollected
		report.ArticlesProcessed += result.ArticlesProcessed
		report.Errors += result.Errors

		// Fixed pause between sources to bound load on the host.
		sleepCtx(ctx, o.sourceDelay)
	}

	report.DurationSeconds = time.Since(start).Seconds()
	o.lastSweepAt.Store(time.Now().Unix())

	slog.Info("collection complete",
		"sources", report.SourcesProcessed,
		"collected", report.ArticlesCollected,
		"processed", report.ArticlesProcessed,
		"errors", report.Errors,
	)

	return report
}

// collectFromSource runs one per-source collection attempt. Every failure is
// isolated to its unit: a bad entry, a failed fetch, or a persistence error
// is counted and skipped, never fatal to the attempt.
func (o *Orchestrator) collectFromSource(ctx context.Context, src models.Source) models.SourceResult {
	start := time.Now()
	result := models.SourceResult{
		SourceID:   src.ID,
		SourceName: src.Name,
	}

	slog.Info("collecting from source", "source", src.Name, "endpoint", src.Endpoint, "kind", src.Kind)

	collector := o.registry.For(src)

	stubs, err := collector.Collect(ctx)
	if err != nil {
		slog.Error("collection failed", "source", src.Name, "error", err)
		result.Errors++
	}

	for _, stub := range stubs {
		if o.processArticle(ctx, collector, src, stub, &result) {
			result.ArticlesProcessed++
		}
	}

	delta := storage.CounterDelta{Collected: result.ArticlesCollected}
	if result.ArticlesCollected > 0 {
		delta.Successes = 1
	} else {
		delta.Failures = 1
	}
	if err := o.store.UpdateSourceCounters(ctx, src.ID, delta); err != nil {
		slog.Error("failed to update source counters", "source", src.Name, "error", err)
		result.Errors++
	}

	result.DurationSeconds = time.Since(start).Seconds()

	slog.Info("collection from source complete",
		"source", src.Name,
		"collected", result.ArticlesCollected,
		"processed", result.ArticlesProcessed,
		"errors", result.Errors,
	)

	return result
}

// processArticle fetches, analyzes, enriches, filters, and persists one
// candidate article. It returns true only when a record was persisted.
func (o *Orchestrator) processArticle(ctx context.Context, collector collect.Collector, src models.Source, stub models.ArticleStub, result *models.SourceResult) bool {
	body, err := collector.FetchBody(ctx, stub.URL)
	if err != nil || body == "" {
		slog.Warn("failed to fetch article body", "url", stub.URL, "error", err)
		result.Errors++
		return false
	}
	result.ArticlesCollected++

	text := stub.Title + "\n\n" + body

	assessment := o.engine.Analyze(ctx, text, src.Name, stub.URL)
	assessment = o.enricher.Fill(assessment)

	if assessment.Severity < minSeverity || assessment.Relevance < minRelevance {
		slog.Debug("skipping low severity/relevance article",
			"title", stub.Title,
			"severity", assessment.Severity,
			"relevance", assessment.Relevance,
		)
		return false
	}

	var lat, lon *float64
	if assessment.Country != "" {
		lat, lon = o.engine.Geolocate(ctx, assessment.Country, assessment.City)
	}

	threat := buildThreat(src, stub, assessment, body, lat, lon)

	created, err := o.store.CreateThreat(ctx, threat)
	if err != nil {
		slog.Error("failed to persist threat", "title", threat.Title, "error", err)
		result.Errors++
		return false
	}

	// Best effort: the notifier swallows its own failures and delivery
	// never affects the report.
	o.notifier.Notify(notify.Event{
		Type:      notify.EventNewThreat,
		Timestamp: time.Now().UTC(),
		Threat:    &created,
	})

	return true
}

// buildThreat maps an accepted assessment onto a persistable record.
func buildThreat(src models.Source, stub models.ArticleStub, a models.Assessment, body string, lat, lon *float64) models.Threat {
	title := a.Title
	if title == "" {
		title = stub.Title
	}
	title = truncateRunes(title, 255)
	content := truncateRunes(body, maxContentChars)

	status := a.Status
	if status == "" {
		status = models.StatusActive
	}

	return models.Threat{
		Title:           title,
		Description:     a.Description,
		Content:         content,
		Latitude:        lat,
		Longitude:       lon,
		Country:         a.Country,
		City:            a.City,
		Severity:        a.Severity,
		Category:        a.Category,
		Status:          status,
		ConfidenceScore: a.Confidence,
		Relevance:       a.Relevance,
		SourceURL:       stub.URL,
		SourceName:      src.Name,
		PublishedAt:     parsePublished(stub.PublishedAt),
		ProcessedAt:     time.Now().UTC(),
		IsActive:        true,
	}
}

// parsePublished tries the date layouts feeds commonly emit. Unparseable
// values are dropped rather than guessed.
func parsePublished(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC3339,
		"2006-01-02T15:04:05-07:00",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// truncateRunes cuts s to at most max bytes without splitting a UTF-8 rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
