package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"snapkeep/internal/config"
	"snapkeep/internal/database"
	"snapkeep/internal/snap"
	"snapkeep/internal/store"
)

// App is the application layer between the CLI and the snap.Service.
// It constructs all dependencies from config, exposes the high-level
// operations, and manages the database and log-file lifecycle on Close.
// The engine itself is stateless; the App is where the "caller"
// responsibilities live: persisting run history and consulting the
// scheduling gate.
type App struct {
	cfg     *config.Config
	db      database.Store
	store   snap.ArchiveStore
	service *snap.Service
	clock   snap.Clock
	run     *database.Run
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// kind identifies the CLI command being run (e.g. "snapshot", "retain").
// The caller must call Close when done.
func NewApp(cfg *config.Config, kind string) (*App, error) {
	return newAppWithDeps(cfg, kind, snap.RealClock{}, snap.UUIDGenerator{})
}

// newAppWithDeps is the injectable constructor behind NewApp; tests supply
// stub clock and ID generator implementations.
func newAppWithDeps(cfg *config.Config, kind string, clock snap.Clock, ids snap.IDGenerator) (*App, error) {
	st, err := store.NewStoreFromConfig(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("creating archive store: %w", err)
	}

	db, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating run history database: %w", err)
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = filepath.Join(cfg.BaseDir, "log")
	}
	runID := ids.New()
	logger, logFile, err := newLogger(logDir, runID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	exts := cfg.Source.Extensions
	if len(exts) == 0 {
		exts = snap.DefaultExtensions
	}
	policy := snap.Policy{
		DailyKeep:         cfg.Retention.DailyKeep,
		WeeklyWindowWeeks: cfg.Retention.WeeklyWindowWeeks,
	}
	if policy.DailyKeep <= 0 || policy.WeeklyWindowWeeks <= 0 {
		policy = snap.DefaultPolicy()
	}

	log := &slogAdapter{l: logger}
	planner := snap.NewPlanner(policy, log)
	scanner := snap.NewScanner(exts)
	svc := snap.NewService(scanner, st, planner, cfg.Staging.Dir, log, clock)

	return &App{
		cfg:     cfg,
		db:      db,
		store:   st,
		service: svc,
		clock:   clock,
		run:     &database.Run{Kind: kind, Status: "success"},
		logFile: logFile,
	}, nil
}

// persistRun saves the run record to the database, giving it an
// auto-increment ID. Only archive-mutating commands call this.
func (a *App) persistRun() error {
	if a.run.ID != 0 {
		return nil // already persisted
	}
	r, err := a.db.CreateRun(a.run.Kind, a.clock.Now())
	if err != nil {
		return fmt.Errorf("persisting run record: %w", err)
	}
	a.run.ID = r.ID
	a.run.StartedAt = r.StartedAt
	return nil
}

// Snapshot creates a new daily archive from the configured source directory.
// sourceDir overrides the configured directory when non-empty.
func (a *App) Snapshot(sourceDir string) (snap.Summary, error) {
	if err := a.persistRun(); err != nil {
		return snap.Summary{}, err
	}

	dir := a.cfg.Source.Dir
	if sourceDir != "" {
		dir = sourceDir
	}
	if dir == "" {
		return snap.Summary{}, fmt.Errorf("no source directory configured")
	}

	summary := a.service.CreateSnapshot(dir)
	a.run.FileCount = summary.FileCount
	a.run.TotalBytes = summary.TotalBytes
	if summary.Err != nil {
		if errors.Is(summary.Err, snap.ErrNoSourceFiles) {
			// Informational: nothing to back up is not a failed backup,
			// but it must not advance the last-successful-snapshot gate.
			a.run.Status = "empty"
		} else {
			a.run.Status = "error"
			a.run.Error = summary.Err.Error()
		}
	}
	return summary, nil
}

// Retain applies the tiered retention policy to the archive store and
// returns the number of archives removed.
func (a *App) Retain() (int, error) {
	if err := a.persistRun(); err != nil {
		return 0, err
	}

	removed, err := a.service.ApplyRetention()
	a.run.Removed = removed
	if err != nil {
		a.run.Status = "error"
		a.run.Error = err.Error()
		return removed, err
	}
	return removed, nil
}

// ShouldRun consults the scheduling gate against the last successful
// snapshot recorded in the run history.
func (a *App) ShouldRun() (bool, error) {
	last, ok, err := a.db.LastSuccessfulSnapshot()
	if err != nil {
		return false, fmt.Errorf("reading last snapshot time: %w", err)
	}
	if !ok {
		return true, nil
	}

	interval := a.cfg.Schedule.IntervalHours
	if interval <= 0 {
		interval = 24
	}
	return snap.ShouldRun(a.clock, last.UTC().Format(time.RFC3339), interval), nil
}

// History returns the most recent runs, newest first.
func (a *App) History(limit int) ([]*database.Run, error) {
	return a.db.ListRuns(limit)
}

// ValidateStore verifies the archive store is accessible.
func (a *App) ValidateStore() error {
	return a.store.ValidateSetup()
}

// Close finalizes the run record (if one was persisted) and closes all
// resources.
func (a *App) Close() error {
	var firstErr error

	if a.run.ID != 0 {
		if err := a.db.FinishRun(a.run, a.clock.Now()); err != nil {
			firstErr = fmt.Errorf("finishing run record: %w", err)
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
