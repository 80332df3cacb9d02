// Package scanner discovers test case files under the input directories.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
)

// Scanner finds test case files.
type Scanner interface {
	Scan(rootDir string, patterns []string, excludes []string) ([]string, error)
}

// FileScanner implements Scanner using filepath.WalkDir.
type FileScanner struct {
	Recursive bool
}

// NewScanner creates a new FileScanner.
func NewScanner(recursive bool) *FileScanner {
	return &FileScanner{Recursive: recursive}
}

// FromConfig creates a FileScanner for the input section. Recursion is on
// unless explicitly disabled.
func FromConfig(cfg config.InputConfig) *FileScanner {
	return NewScanner(cfg.Recursive == nil || *cfg.Recursive)
}

// Scan walks rootDir and returns sorted file paths matching any of the given
// glob patterns while excluding paths that match any exclude pattern.
func (s *FileScanner) Scan(rootDir string, patterns []string, excludes []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			relPath = path
		}

		if d.IsDir() {
			if relPath == "." {
				return nil
			}
			if !s.Recursive || Excluded(relPath, excludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if Excluded(relPath, excludes) {
			return nil
		}
		for _, pattern := range patterns {
			if matchGlob(relPath, pattern) {
				files = append(files, path)
				return nil
			}
		}
		return nil
	})

	if err != nil {
		return nil, domain.NewError("scan", rootDir, 0, "failed to scan directory", err)
	}

	sort.Strings(files)
	return files, nil
}

// ScanInput scans every input directory and returns the union of matches,
// each path once, in directory order.
func (s *FileScanner) ScanInput(cfg config.InputConfig) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, dir := range cfg.Directories {
		found, err := s.Scan(dir, cfg.Include, cfg.Exclude)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, nil
}

// Matches reports whether relPath, relative to an input directory, would be
// picked up by ScanInput.
func Matches(cfg config.InputConfig, relPath string) bool {
	if Excluded(relPath, cfg.Exclude) {
		return false
	}
	for _, pattern := range cfg.Include {
		if matchGlob(relPath, pattern) {
			return true
		}
	}
	return false
}

// Excluded reports whether relPath matches any of the exclude patterns.
func Excluded(relPath string, excludes []string) bool {
	for _, exc := range excludes {
		if matchGlob(relPath, exc) {
			return true
		}
	}
	return false
}

// matchGlob matches a path against a glob pattern, supporting ** for recursive matching.
func matchGlob(path, pattern string) bool {
	path = filepath.ToSlash(path)
	pattern = filepath.ToSlash(pattern)

	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		prefix := strings.TrimSuffix(parts[0], "/")
		suffix := strings.TrimPrefix(parts[1], "/")

		if prefix != "" {
			if path != prefix && !strings.HasPrefix(path, prefix+"/") {
				return false
			}
			path = strings.TrimPrefix(strings.TrimPrefix(path, prefix), "/")
		}

		if suffix == "" {
			return true
		}

		pathParts := strings.Split(path, "/")
		for i := range pathParts {
			if matched, _ := filepath.Match(suffix, strings.Join(pathParts[i:], "/")); matched {
				return true
			}
		}
		return false
	}

	if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
		return true
	}
	matched, _ := filepath.Match(pattern, path)
	return matched
}
