package snap

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultExtensions is the allow-list of profile data file extensions.
var DefaultExtensions = []string{".db", ".xml", ".xmlbackup", ".bac", ".dat", ".json"}

// SourceFile is a file selected for backup under the source root.
// Source files are read-only to this system; they are never moved or modified.
type SourceFile struct {
	AbsPath string
	RelPath string // relative to the source root; this becomes the archive layout
	Size    int64
	ModTime time.Time
}

// ExtMatcher checks file names against an extension allow-list.
// Matching is case-insensitive.
type ExtMatcher struct {
	exts map[string]bool
}

// NewExtMatcher creates an ExtMatcher from raw extension strings.
// Extensions are normalized to lowercase with a leading dot; blank entries
// are skipped. An empty list yields a matcher that matches nothing.
func NewExtMatcher(rawExts []string) *ExtMatcher {
	exts := make(map[string]bool)
	for _, raw := range rawExts {
		raw = strings.ToLower(strings.TrimSpace(raw))
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, ".") {
			raw = "." + raw
		}
		exts[raw] = true
	}
	return &ExtMatcher{exts: exts}
}

// Match reports whether the given file name has an allowed extension.
func (m *ExtMatcher) Match(name string) bool {
	return m.exts[strings.ToLower(filepath.Ext(name))]
}

// Scanner discovers source files beneath a root directory.
type Scanner struct {
	matcher *ExtMatcher
}

// NewScanner creates a Scanner with the given extension allow-list.
func NewScanner(extensions []string) *Scanner {
	return &Scanner{matcher: NewExtMatcher(extensions)}
}

// FindSourceFiles walks the tree under root and returns every regular file
// whose extension is in the allow-list. A missing root is not an error: the
// result is simply empty. No ordering is guaranteed.
func (s *Scanner) FindSourceFiles(root string) ([]SourceFile, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat source root: %w", err)
	}

	var files []SourceFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !s.matcher.Match(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("calculating relative path: %w", err)
		}
		files = append(files, SourceFile{
			AbsPath: p,
			RelPath: rel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking source root: %w", err)
	}

	return files, nil
}
