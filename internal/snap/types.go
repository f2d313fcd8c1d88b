package snap

import (
	"errors"
	"time"
)

// Tier classifies an archive's retention treatment, encoded in its filename.
type Tier string

const (
	TierDaily   Tier = "daily"
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"
)

// ArchiveExt is the extension every managed archive carries.
const ArchiveExt = ".zip"

// ErrNoSourceFiles is returned (via Summary.Err) when a snapshot run finds
// nothing to back up. It is informational: no archive is created, but the
// run itself is not a failure.
var ErrNoSourceFiles = errors.New("no files found to back up")

// BackupEntry is the planner's in-memory view of one archive in the store.
// Name and Tier change on promotion; Date never does.
type BackupEntry struct {
	Name string // archive name within the store
	Date time.Time
	Tier Tier
}

// Summary reports the outcome of one snapshot run.
// ArchiveName is always the intended daily archive name for the run's date,
// even when Err is set, so callers can report intended vs. actual location.
type Summary struct {
	ArchiveName string
	FileCount   int
	TotalBytes  int64
	Err         error
}

// Policy holds the retention windows. The zero value is not usable;
// use DefaultPolicy unless config overrides it.
type Policy struct {
	DailyKeep         int
	WeeklyWindowWeeks int
}

// DefaultPolicy keeps 7 dailies and promotes weeklies inside a 4-week window.
// Monthly retention is indefinite and has no knob.
func DefaultPolicy() Policy {
	return Policy{DailyKeep: 7, WeeklyWindowWeeks: 4}
}

// ArchiveName renders the managed filename for a date and tier.
func ArchiveName(date time.Time, tier Tier) string {
	return date.Format("2006-01-02") + "_" + string(tier) + ArchiveExt
}
