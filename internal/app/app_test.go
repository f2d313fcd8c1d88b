package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"snapkeep/internal/config"
	"snapkeep/internal/database"
	"snapkeep/internal/snap"
	"snapkeep/internal/testutil"
)

func newTestApp(t *testing.T, kind string) *App {
	t.Helper()

	cfg := config.NewConfig("host-test", t.TempDir())
	cfg.Store = config.StoreConfig{Type: "memory"}
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.Source.Dir = t.TempDir()

	a, err := newAppWithDeps(cfg, kind, testutil.FixedClock(), testutil.NewStubIDGenerator())
	if err != nil {
		t.Fatalf("newAppWithDeps() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestApp_RunIDFlowsToLogs(t *testing.T) {
	a := newTestApp(t, database.RunKindRetain)

	if _, err := a.Retain(); err != nil {
		t.Fatalf("Retain() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(a.cfg.LogDir, "snapkeep.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\tid-1\t") {
		t.Errorf("log output missing generated run ID:\n%s", data)
	}
}

func TestApp_SnapshotEmptySource(t *testing.T) {
	a := newTestApp(t, database.RunKindSnapshot)

	summary, err := a.Snapshot("")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if !errors.Is(summary.Err, snap.ErrNoSourceFiles) {
		t.Fatalf("summary.Err = %v, want ErrNoSourceFiles", summary.Err)
	}
	if a.run.Status != "empty" {
		t.Errorf("run status = %q, want empty", a.run.Status)
	}

	// An empty source is not a successful backup: finishing the run must not
	// advance the scheduling gate.
	if err := a.db.FinishRun(a.run, a.clock.Now()); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}
	due, err := a.ShouldRun()
	if err != nil {
		t.Fatalf("ShouldRun() error = %v", err)
	}
	if !due {
		t.Errorf("ShouldRun() = false after empty run, want true")
	}
}
