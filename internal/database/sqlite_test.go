package database_test

import (
	"testing"
	"time"

	"snapkeep/internal/database"
	"snapkeep/internal/testutil"
)

func TestSQLiteStore_Runs(t *testing.T) {
	db := testutil.NewTestStore(t)

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	run, err := db.CreateRun(database.RunKindSnapshot, start)
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if run.ID == 0 {
		t.Errorf("run ID not assigned")
	}
	if run.Status != "running" {
		t.Errorf("Status = %q, want running", run.Status)
	}

	run.Status = "success"
	run.FileCount = 12
	run.TotalBytes = 4096
	if err := db.FinishRun(run, start.Add(30*time.Second)); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}
	if !run.FinishedAt.Valid {
		t.Errorf("FinishedAt not set after FinishRun")
	}

	second, err := db.CreateRun(database.RunKindRetain, start.Add(time.Minute))
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	second.Status = "success"
	second.Removed = 3
	if err := db.FinishRun(second, start.Add(2*time.Minute)); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].Kind != database.RunKindRetain {
		t.Errorf("runs not newest first: got %q first", runs[0].Kind)
	}
	if runs[1].FileCount != 12 || runs[1].TotalBytes != 4096 {
		t.Errorf("snapshot run = files %d bytes %d, want 12/4096",
			runs[1].FileCount, runs[1].TotalBytes)
	}
	if runs[0].Removed != 3 {
		t.Errorf("retain run Removed = %d, want 3", runs[0].Removed)
	}

	limited, err := db.ListRuns(1)
	if err != nil {
		t.Fatalf("ListRuns(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListRuns(1) returned %d runs, want 1", len(limited))
	}
}

func TestSQLiteStore_LastSuccessfulSnapshot(t *testing.T) {
	db := testutil.NewTestStore(t)

	if _, ok, err := db.LastSuccessfulSnapshot(); err != nil || ok {
		t.Fatalf("empty history: got ok=%v err=%v, want ok=false err=nil", ok, err)
	}

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	finish := func(kind, status string, startedAt, finishedAt time.Time) {
		t.Helper()
		run, err := db.CreateRun(kind, startedAt)
		if err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
		run.Status = status
		if err := db.FinishRun(run, finishedAt); err != nil {
			t.Fatalf("FinishRun() error = %v", err)
		}
	}

	// Only successful snapshot-producing runs count; retention passes and
	// failed runs do not move the gate.
	finish(database.RunKindSnapshot, "success", start, start.Add(time.Minute))
	finish(database.RunKindRetain, "success", start.Add(time.Hour), start.Add(time.Hour+time.Minute))
	finish(database.RunKindSnapshot, "error", start.Add(2*time.Hour), start.Add(2*time.Hour+time.Minute))

	got, ok, err := db.LastSuccessfulSnapshot()
	if err != nil {
		t.Fatalf("LastSuccessfulSnapshot() error = %v", err)
	}
	if !ok {
		t.Fatalf("LastSuccessfulSnapshot() ok = false, want true")
	}
	want := start.Add(time.Minute)
	if !got.Equal(want) {
		t.Errorf("LastSuccessfulSnapshot() = %v, want %v", got, want)
	}

	// A combined run that snapshots also moves the gate.
	finish(database.RunKindRun, "success", start.Add(3*time.Hour), start.Add(3*time.Hour+time.Minute))

	got, ok, err = db.LastSuccessfulSnapshot()
	if err != nil || !ok {
		t.Fatalf("LastSuccessfulSnapshot() ok=%v err=%v", ok, err)
	}
	want = start.Add(3*time.Hour + time.Minute)
	if !got.Equal(want) {
		t.Errorf("LastSuccessfulSnapshot() = %v, want %v", got, want)
	}
}
