package snap

import "fmt"

// Service is the orchestration layer coordinating scanner, staging, archive
// store, and planner to perform one-shot backup operations for the CLI.
// It is stateless between calls and assumes exclusive access to the store
// for the duration of a call; callers serialize invocations.
type Service struct {
	scanner    *Scanner
	store      ArchiveStore
	planner    *Planner
	stagingDir string
	logger     Logger
	clock      Clock
}

// NewService creates a Service with the provided dependencies.
// stagingDir is the parent for per-run staging areas; empty means the OS
// temp directory.
func NewService(scanner *Scanner, store ArchiveStore, planner *Planner, stagingDir string, logger Logger, clock Clock) *Service {
	return &Service{
		scanner:    scanner,
		store:      store,
		planner:    planner,
		stagingDir: stagingDir,
		logger:     logger,
		clock:      clock,
	}
}

// ApplyRetention re-reads the store, classifies managed archives, and
// applies the tiered keep/promote/evict plan. Returns the number of archives
// removed. Promotion and deletion failures are logged and recovered inside
// Apply; only a failure to list the store surfaces as an error.
func (s *Service) ApplyRetention() (int, error) {
	names, err := s.store.List()
	if err != nil {
		return 0, fmt.Errorf("listing archive store: %w", err)
	}

	entries := Classify(names)
	plan := s.planner.Plan(entries, s.clock.Now())
	removed := s.planner.Apply(s.store, plan)

	s.logger.Info("retention applied",
		"managed", len(entries),
		"kept", len(plan.Keep),
		"promoted", len(plan.Promotions),
		"removed", removed)
	return removed, nil
}
