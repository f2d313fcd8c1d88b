package snap

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// writeArchive serializes the staged tree into one compressed archive object
// in the store. Every staged file is written at its path relative to the
// staging root, so the archive layout mirrors the source tree.
func writeArchive(store ArchiveStore, name string, stagingRoot string, logger Logger) error {
	w, err := store.Create(name)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", name, err)
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	walkErr := filepath.WalkDir(stagingRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(stagingRoot, p)
		if err != nil {
			return fmt.Errorf("calculating relative path: %w", err)
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat staged file: %w", err)
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("building archive header: %w", err)
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("creating archive entry %s: %w", hdr.Name, err)
		}

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("opening staged file: %w", err)
		}
		if _, err := io.Copy(entry, f); err != nil {
			f.Close()
			return fmt.Errorf("writing archive entry %s: %w", hdr.Name, err)
		}
		return f.Close()
	})

	if walkErr != nil {
		zw.Close()
		w.Close()
		discardPartial(store, name, logger)
		return walkErr
	}

	if err := zw.Close(); err != nil {
		w.Close()
		discardPartial(store, name, logger)
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := w.Close(); err != nil {
		discardPartial(store, name, logger)
		return fmt.Errorf("closing archive object: %w", err)
	}
	return nil
}

// discardPartial drops whatever a failed write left behind under the
// archive's final name. Backends whose Close commits buffered content would
// otherwise leave a truncated archive that classifies as a valid daily.
// Failed runs must leave nothing behind.
func discardPartial(store ArchiveStore, name string, logger Logger) {
	if err := store.Remove(name); err != nil {
		logger.Warn("failed to drop partial archive", "name", name, "error", err)
	}
}
