package snap

import (
	"fmt"
)

// CreateSnapshot discovers source files, stages them, and serializes the
// staging tree into a new daily archive in the store. The returned Summary
// always carries the intended archive name; on any failure FileCount and
// TotalBytes are zeroed so a failed run reports nothing partial. The staging
// area is released on every exit path.
func (s *Service) CreateSnapshot(sourceRoot string) Summary {
	name := ArchiveName(s.clock.Now(), TierDaily)
	summary := Summary{ArchiveName: name}

	files, err := s.scanner.FindSourceFiles(sourceRoot)
	if err != nil {
		summary.Err = fmt.Errorf("scanning source files: %w", err)
		return summary
	}
	if len(files) == 0 {
		summary.Err = ErrNoSourceFiles
		return summary
	}

	sa, err := newStagingArea(s.stagingDir)
	if err != nil {
		summary.Err = err
		return summary
	}
	defer sa.Release()

	var totalBytes int64
	for _, f := range files {
		if err := sa.Stage(f); err != nil {
			summary.Err = fmt.Errorf("staging %s: %w", f.RelPath, err)
			return summary
		}
		totalBytes += f.Size
	}

	if err := writeArchive(s.store, name, sa.Root(), s.logger); err != nil {
		summary.Err = err
		return summary
	}

	summary.FileCount = len(files)
	summary.TotalBytes = totalBytes
	s.logger.Info("snapshot created",
		"archive", name, "files", summary.FileCount, "bytes", totalBytes)
	return summary
}
