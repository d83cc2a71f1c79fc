package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/watchkeeper/watchkeeper/internal/analysis"
	"github.com/watchkeeper/watchkeeper/internal/api"
	"github.com/watchkeeper/watchkeeper/internal/collect"
	"github.com/watchkeeper/watchkeeper/internal/config"
	"github.com/watchkeeper/watchkeeper/internal/enrich"
	"github.com/watchkeeper/watchkeeper/internal/notify"
	"github.com/watchkeeper/watchkeeper/internal/pipeline"
	"github.com/watchkeeper/watchkeeper/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	dataDir := flag.String("data-dir", "./data", "path to data directory")
	flag.Parse()

	if err := run(*configPath, *dataDir); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath, dataDir string) error {
	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Ensure data directory exists.
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode and pragmas.
	db, err := storage.OpenDatabase(filepath.Join(dataDir, "watchkeeper.db"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Run schema migrations.
	if err := storage.RunMigrations(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Create store and seed default news sources.
	store := storage.NewStore(db)
	if err := store.SeedDefaults(context.Background()); err != nil {
		return fmt.Errorf("seeding default sources: %w", err)
	}

	// Analysis engine talking to the local Ollama service. The engine never
	// fails outright; it degrades to keyword analysis when the model is
	// unreachable.
	engine := analysis.NewEngine(analysis.Options{
		BaseURL:  cfg.AI.BaseURL,
		Model:    cfg.AI.Model,
		Timeout:  time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		Throttle: time.Duration(cfg.AI.ThrottleSeconds) * time.Second,
	})
	slog.Info("analysis engine configured", "base_url", cfg.AI.BaseURL, "model", cfg.AI.Model)

	// Collectors, enrichment and live notifications.
	registry := collect.NewRegistry(
		time.Duration(cfg.Collection.FetchTimeoutSeconds)*time.Second,
		cfg.Collection.MaxArticlesPerSource,
	)
	enricher := enrich.New(store)
	hub := notify.NewHub()

	orch := pipeline.NewOrchestrator(store, registry, engine, enricher, hub,
		time.Duration(cfg.Collection.SourceDelaySeconds)*time.Second)
	updater := pipeline.NewLifecycleUpdater(store, hub,
		time.Duration(cfg.Lifecycle.ActiveToMonitoringDays)*24*time.Hour,
		time.Duration(cfg.Lifecycle.MonitoringToResolvedDays)*24*time.Hour)

	router := api.NewRouter(store, orch, updater, enricher, hub)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// HTTP server.
	g.Go(func() error {
		slog.Info("starting server", "addr", "http://"+addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Shut the server down when the context is cancelled.
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Collection scheduler: one sweep immediately, then on a fixed interval.
	g.Go(func() error {
		runSweep(ctx, orch)
		ticker := time.NewTicker(time.Duration(cfg.Collection.FrequencyMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				runSweep(ctx, orch)
			}
		}
	})

	// Lifecycle scheduler: ages threat statuses on its own interval.
	g.Go(func() error {
		ticker := time.NewTicker(time.Duration(cfg.Lifecycle.IntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				result, err := updater.Advance(ctx)
				if err != nil {
					slog.Error("lifecycle update failed", "error", err)
					continue
				}
				if result.Total() > 0 {
					slog.Info("lifecycle update complete",
						"to_monitoring", result.ToMonitoring,
						"to_resolved", result.ToResolved)
				}
			}
		}
	})

	return g.Wait()
}

// runSweep runs one scheduled collection sweep and logs the outcome. Sweeps
// triggered while another is in flight are reported and dropped.
func runSweep(ctx context.Context, orch *pipeline.Orchestrator) {
	report := orch.RunSweep(ctx, "")
	slog.Info("scheduled sweep finished",
		"status", report.Status,
		"sources", report.SourcesProcessed,
		"collected", report.ArticlesCollected,
		"processed", report.ArticlesProcessed,
		"errors", report.Errors,
		"duration_seconds", report.DurationSeconds)
}
