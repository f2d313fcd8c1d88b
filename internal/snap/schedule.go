package snap

import (
	"strings"
	"time"
)

// lastRunFormats are tried in order when parsing a persisted timestamp.
// Layouts without a zone are interpreted as UTC.
var lastRunFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ShouldRun reports whether at least intervalHours have elapsed since
// lastRun, as measured by clock. An absent, empty, or unparseable timestamp
// always yields true: never silently skip backups over corrupt state.
func ShouldRun(clock Clock, lastRun string, intervalHours int) bool {
	lastRun = strings.TrimSpace(lastRun)
	if lastRun == "" {
		return true
	}

	var last time.Time
	parsed := false
	for _, layout := range lastRunFormats {
		t, err := time.ParseInLocation(layout, lastRun, time.UTC)
		if err == nil {
			last = t
			parsed = true
			break
		}
	}
	if !parsed {
		return true
	}

	elapsed := clock.Now().UTC().Sub(last)
	return elapsed >= time.Duration(intervalHours)*time.Hour
}
