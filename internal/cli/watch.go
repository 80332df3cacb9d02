package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/scanner"
)

const watchDebounce = 300 * time.Millisecond

// watcher reruns a function whenever a watched test case or the
// translation table changes. Bursts of events collapse into one rerun.
type watcher struct {
	dirs     []string
	match    func(path string) bool
	debounce time.Duration
	log      *logrus.Logger
}

// newWatcher watches the given case files, or every case under the input
// directories when files is empty, plus the translation table.
func newWatcher(cfg *config.Config, files []string, log *logrus.Logger) (*watcher, error) {
	table := cleanAbs(cfg.Translation.Path)
	dirs := map[string]bool{filepath.Dir(table): true}

	var match func(string) bool
	if len(files) > 0 {
		wanted := map[string]bool{table: true}
		for _, f := range files {
			abs := cleanAbs(f)
			wanted[abs] = true
			dirs[filepath.Dir(abs)] = true
		}
		match = func(path string) bool { return wanted[cleanAbs(path)] }
	} else {
		roots := make([]string, 0, len(cfg.Input.Directories))
		recursive := cfg.Input.Recursive == nil || *cfg.Input.Recursive
		for _, dir := range cfg.Input.Directories {
			root := cleanAbs(dir)
			roots = append(roots, root)
			if err := addDirs(dirs, root, recursive, cfg.Input.Exclude); err != nil {
				return nil, err
			}
		}
		match = func(path string) bool {
			path = cleanAbs(path)
			if path == table {
				return true
			}
			for _, root := range roots {
				rel, err := filepath.Rel(root, path)
				if err == nil && !outside(rel) && scanner.Matches(cfg.Input, rel) {
					return true
				}
			}
			return false
		}
	}

	w := &watcher{match: match, debounce: watchDebounce, log: log}
	for dir := range dirs {
		w.dirs = append(w.dirs, dir)
	}
	return w, nil
}

// Run calls fn for every settled change until ctx is cancelled. fn runs on
// the watching goroutine, so events arriving meanwhile wait for it.
func (w *watcher) Run(ctx context.Context, fn func(ctx context.Context)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return domain.NewError("watch", "", 0, "failed to start file watcher", err)
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return domain.NewError("watch", dir, 0, "failed to watch directory", err)
		}
		w.log.Debugf("Watching %s", dir)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !w.match(ev.Name) {
				continue
			}
			w.log.Debugf("Change detected: %s", ev.Name)
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("File watcher error")
		case <-timer.C:
			fn(ctx)
		}
	}
}

// addDirs records root and, when recursive, every non-excluded directory below it.
func addDirs(dirs map[string]bool, root string, recursive bool, excludes []string) error {
	if !recursive {
		dirs[root] = true
		return nil
	}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(root, path); rel != "." && scanner.Excluded(rel, excludes) {
			return filepath.SkipDir
		}
		dirs[path] = true
		return nil
	})
	if err != nil {
		return domain.NewError("watch", root, 0, "failed to list directories", err)
	}
	return nil
}

func cleanAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
