package snap

import (
	"strings"
	"time"
)

// ParseArchiveName parses a managed archive filename into its date and tier.
// The grammar is YYYY-MM-DD_<tier>.zip with tier one of daily, weekly,
// monthly. The second return value is false for any name outside the
// grammar; such files are unmanaged and the engine never touches them.
func ParseArchiveName(name string) (BackupEntry, bool) {
	if !strings.HasSuffix(name, ArchiveExt) {
		return BackupEntry{}, false
	}
	stem := strings.TrimSuffix(name, ArchiveExt)

	idx := strings.LastIndex(stem, "_")
	if idx < 0 {
		return BackupEntry{}, false
	}
	datePart, tierPart := stem[:idx], stem[idx+1:]

	var tier Tier
	switch Tier(tierPart) {
	case TierDaily, TierWeekly, TierMonthly:
		tier = Tier(tierPart)
	default:
		return BackupEntry{}, false
	}

	// Strict parse: the prefix must be exactly an ISO calendar date.
	date, err := time.Parse("2006-01-02", datePart)
	if err != nil {
		return BackupEntry{}, false
	}

	return BackupEntry{Name: name, Date: date, Tier: tier}, true
}

// Classify parses the store's object names into backup entries, keyed by
// name. Names failing the grammar are excluded from the map and from all
// further processing; this is the single safety gate protecting unrelated
// files in the backup store.
func Classify(names []string) map[string]BackupEntry {
	entries := make(map[string]BackupEntry)
	for _, name := range names {
		if e, ok := ParseArchiveName(name); ok {
			entries[name] = e
		}
	}
	return entries
}
