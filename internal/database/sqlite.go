package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Run is one recorded CLI run: a snapshot, a retention pass, or a combined
// run. FinishedAt is unset while the run is in flight.
type Run struct {
	ID         int64
	Kind       string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string // "running", "success", "empty", or "error"
	FileCount  int
	TotalBytes int64
	Removed    int
	Error      string
}

// Run kinds recorded in history.
const (
	RunKindSnapshot = "snapshot"
	RunKindRetain   = "retain"
	RunKindRun      = "run"
)

// Schema is the current full schema, used by tests to build in-memory
// databases without going through the migration machinery.
const Schema = `
CREATE TABLE runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    kind        TEXT NOT NULL,
    started_at  TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    status      TEXT NOT NULL DEFAULT 'running',
    file_count  INTEGER NOT NULL DEFAULT 0,
    total_bytes INTEGER NOT NULL DEFAULT 0,
    removed     INTEGER NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX idx_runs_kind_status ON runs (kind, status);
`

// Store records run history.
type Store interface {
	// CreateRun inserts a new run in "running" state and returns it.
	CreateRun(kind string, startedAt time.Time) (*Run, error)

	// FinishRun finalizes a run with its outcome.
	FinishRun(run *Run, finishedAt time.Time) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*Run, error)

	// LastSuccessfulSnapshot returns the finish time of the most recent
	// successful run that created a snapshot. ok is false if there is none.
	LastSuccessfulSnapshot() (t time.Time, ok bool, err error)

	// Close closes the database connection.
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly
// configured and the schema applied.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests needing a properly configured
// connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite ships with foreign keys off for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// DB exposes the underlying connection for migration checks.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) CreateRun(kind string, startedAt time.Time) (*Run, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (kind, started_at, status) VALUES (?, ?, 'running')`,
		kind, startedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading run id: %w", err)
	}
	return &Run{ID: id, Kind: kind, StartedAt: startedAt.UTC(), Status: "running"}, nil
}

func (s *SQLiteStore) FinishRun(run *Run, finishedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE runs
		 SET finished_at = ?, status = ?, file_count = ?, total_bytes = ?, removed = ?, error = ?
		 WHERE id = ?`,
		finishedAt.UTC(), run.Status, run.FileCount, run.TotalBytes, run.Removed, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	run.FinishedAt = sql.NullTime{Time: finishedAt.UTC(), Valid: true}
	return nil
}

func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, started_at, finished_at, status, file_count, total_bytes, removed, error
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.StartedAt, &r.FinishedAt,
			&r.Status, &r.FileCount, &r.TotalBytes, &r.Removed, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteStore) LastSuccessfulSnapshot() (time.Time, bool, error) {
	row := s.db.QueryRow(
		`SELECT finished_at FROM runs
		 WHERE kind IN (?, ?) AND status = 'success' AND finished_at IS NOT NULL
		 ORDER BY finished_at DESC LIMIT 1`,
		RunKindSnapshot, RunKindRun,
	)

	var t time.Time
	if err := row.Scan(&t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("finding last successful snapshot: %w", err)
	}
	return t, true, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Compile-time check that SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
