package snap

import (
	"sort"
	"time"
)

// Promotion records a planned rename of an archive to a higher tier.
// The date never changes; only the tier (and therefore the name) does.
type Promotion struct {
	From BackupEntry
	To   BackupEntry
}

// Plan is the outcome of one planning pass: which entries survive, which
// renames realize promotions, and which entries are evicted. Promoted
// entries appear in Keep under their new name.
type Plan struct {
	Keep       map[string]BackupEntry
	Promotions []Promotion
	Deletions  []BackupEntry
}

// Planner computes and applies the tiered retention policy.
type Planner struct {
	policy Policy
	logger Logger
}

// NewPlanner creates a Planner with the given policy.
func NewPlanner(policy Policy, logger Logger) *Planner {
	return &Planner{policy: policy, logger: logger}
}

// Plan partitions the classified entries by the daily and weekly cutoffs and
// decides the keep set. Each tier runs against an immutable view produced by
// the previous tier: weekly promotion never changes an entry's date, and the
// monthly pass only considers entries dated at or before the weekly cutoff,
// so no entry is visible to both passes.
//
// The pass is idempotent: once a week or month has a designated survivor of
// the target tier, re-planning the same entries produces no new promotions.
func (p *Planner) Plan(entries map[string]BackupEntry, today time.Time) *Plan {
	day := truncateToDay(today)
	dailyCutoff := day.AddDate(0, 0, -p.policy.DailyKeep)
	weeklyCutoff := day.AddDate(0, 0, -7*p.policy.WeeklyWindowWeeks)

	plan := &Plan{Keep: make(map[string]BackupEntry)}
	kept := func(e BackupEntry) bool { _, ok := plan.Keep[e.Name]; return ok }

	// Step 1: daily retention. Only dailies inside the daily window survive
	// as-is; anything older stays in play as a promotion candidate below,
	// even when there are fewer than DailyKeep dailies in total.
	var dailies []BackupEntry
	for _, e := range entries {
		if e.Tier == TierDaily && e.Date.After(dailyCutoff) {
			dailies = append(dailies, e)
		}
	}
	sortNewestFirst(dailies)
	for i, e := range dailies {
		if i >= p.policy.DailyKeep {
			break
		}
		plan.Keep[e.Name] = e
	}

	// Step 2: weekly promotion over the (weeklyCutoff, dailyCutoff] window,
	// bucketed by ISO week. Monthlies never compete here: a hand-placed
	// monthly inside the window must not be demoted by winning its week;
	// step 4 keeps it.
	weeklyGroups := make(map[isoWeek][]BackupEntry)
	for _, e := range entries {
		if kept(e) || e.Tier == TierMonthly {
			continue
		}
		if e.Date.After(weeklyCutoff) && !e.Date.After(dailyCutoff) {
			y, w := e.Date.ISOWeek()
			k := isoWeek{y, w}
			weeklyGroups[k] = append(weeklyGroups[k], e)
		}
	}
	p.promoteGroups(plan, weeklyGroups, TierWeekly)

	// Step 3: monthly promotion for everything at or before the weekly
	// cutoff, bucketed by calendar month. Monthly winners are retained
	// indefinitely; losing monthlies within a month fall through like
	// anything else.
	monthlyGroups := make(map[isoWeek][]BackupEntry)
	for _, e := range entries {
		if kept(e) {
			continue
		}
		if !e.Date.After(weeklyCutoff) {
			k := isoWeek{e.Date.Year(), int(e.Date.Month())}
			monthlyGroups[k] = append(monthlyGroups[k], e)
		}
	}
	p.promoteGroups(plan, monthlyGroups, TierMonthly)

	// Step 4: monthly safeguard. A monthly outside the step-3 range was
	// never put up against its own month group, and monthlies are not
	// pruned except by losing that contest.
	for _, e := range entries {
		if e.Tier == TierMonthly && e.Date.After(weeklyCutoff) && !kept(e) {
			plan.Keep[e.Name] = e
		}
	}

	// Step 5: everything else is evicted. Promotion sources are not
	// deletion candidates; their bytes become the promoted archive.
	promoted := make(map[string]bool)
	for _, pr := range plan.Promotions {
		promoted[pr.From.Name] = true
	}
	for _, e := range entries {
		if !kept(e) && !promoted[e.Name] {
			plan.Deletions = append(plan.Deletions, e)
		}
	}
	sortNewestFirst(plan.Deletions)

	return plan
}

// promoteGroups applies the promote-or-keep-existing rule to each bucket:
// if the bucket already holds an entry of the target tier, the newest such
// entry survives unchanged; otherwise the newest entry of any tier is
// promoted by rename to the target tier for its (unchanged) date.
func (p *Planner) promoteGroups(plan *Plan, groups map[isoWeek][]BackupEntry, target Tier) {
	for _, group := range groups {
		sortNewestFirst(group)

		winner := group[0]
		existing := false
		for _, e := range group {
			if e.Tier == target {
				winner = e
				existing = true
				break
			}
		}

		if existing {
			plan.Keep[winner.Name] = winner
			continue
		}

		to := BackupEntry{
			Name: ArchiveName(winner.Date, target),
			Date: winner.Date,
			Tier: target,
		}
		plan.Promotions = append(plan.Promotions, Promotion{From: winner, To: to})
		plan.Keep[to.Name] = to
	}
}

// Apply performs the plan's renames and deletions against the store and
// returns the number of archives removed. A failed rename keeps the
// original, unpromoted archive; a failed delete is skipped. Neither fails
// the pass: losing an old archive is worse than failing retention.
func (p *Planner) Apply(store ArchiveStore, plan *Plan) int {
	for _, pr := range plan.Promotions {
		if err := store.Rename(pr.From.Name, pr.To.Name); err != nil {
			p.logger.Warn("promotion failed, keeping original",
				"from", pr.From.Name, "to", pr.To.Name, "error", err)
			delete(plan.Keep, pr.To.Name)
			plan.Keep[pr.From.Name] = pr.From
			continue
		}
		p.logger.Info("archive promoted", "from", pr.From.Name, "to", pr.To.Name)
	}

	removed := 0
	for _, e := range plan.Deletions {
		if err := store.Remove(e.Name); err != nil {
			p.logger.Warn("eviction failed, skipping", "name", e.Name, "error", err)
			continue
		}
		p.logger.Debug("archive evicted", "name", e.Name)
		removed++
	}
	return removed
}

// isoWeek doubles as a (year, week) and (year, month) bucket key.
type isoWeek struct {
	year   int
	number int
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sortNewestFirst orders entries by descending date, with name as a
// deterministic tiebreak for same-date entries of different tiers.
func sortNewestFirst(entries []BackupEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].Name < entries[j].Name
	})
}
