package snap_test

import (
	"testing"
	"time"

	"snapkeep/internal/snap"
	"snapkeep/internal/testutil"
)

func TestShouldRun(t *testing.T) {
	now := time.Date(2025, 3, 19, 12, 0, 0, 0, time.UTC)
	clock := testutil.NewStubClock(now)

	tests := []struct {
		name     string
		lastRun  string
		interval int
		want     bool
	}{
		{"no previous run", "", 24, true},
		{"unparseable timestamp", "not-a-date", 24, true},
		{"just ran", "2025-03-19T12:00:00Z", 24, false},
		{"one hour ago", "2025-03-19T11:00:00Z", 24, false},
		{"exactly the interval ago", "2025-03-18T12:00:00Z", 24, true},
		{"well past the interval", "2025-03-17T09:00:00Z", 24, true},
		{"short interval elapsed", "2025-03-19T05:00:00Z", 6, true},
		{"short interval not elapsed", "2025-03-19T07:00:00Z", 6, false},
		{"naive timestamp treated as UTC", "2025-03-19 11:30:00", 24, false},
		{"naive T-separated timestamp", "2025-03-18T11:00:00", 24, true},
		{"future timestamp", "2025-03-20T00:00:00Z", 24, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snap.ShouldRun(clock, tt.lastRun, tt.interval)
			if got != tt.want {
				t.Errorf("ShouldRun(%q, %d) = %v, want %v", tt.lastRun, tt.interval, got, tt.want)
			}
		})
	}
}
