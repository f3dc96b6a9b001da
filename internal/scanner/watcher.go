package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/archaeologist/internal/logger"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 2 * time.Second

// Watcher reports created or modified files under a root.
// Removals and renames are ignored; ingestion never deletes.
type Watcher struct {
	scanner  *Scanner
	debounce time.Duration
	root     string
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a Watcher applying the scanner's filters.
func NewWatcher(s *Scanner, debounce time.Duration) *Watcher {
	if s == nil {
		s = New()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{scanner: s, debounce: debounce}
}

// Watch starts watching root recursively. Each value on the returned
// channel is a sorted batch of changed paths, sent once no new change has
// arrived for the debounce period. The channel is closed when ctx ends.
func (w *Watcher) Watch(ctx context.Context, root string) (<-chan []string, error) {
	absRoot, err := w.scanner.validateRoot(root)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w.fsw = fsw
	w.root = absRoot

	if err := w.addTree(absRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	batches := make(chan []string)
	go w.loop(ctx, batches)
	return batches, nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context, batches chan<- []string) {
	defer close(batches)
	defer w.fsw.Close() //nolint:errcheck

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			path, changed := w.handleFsEvent(event)
			if !changed {
				continue
			}
			logger.Debug("Change detected: %s", path)
			pending[path] = struct{}{}
			timer.Reset(w.debounce)
			timerC = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)

		case <-timerC:
			timerC = nil
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})

			select {
			case batches <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleFsEvent returns the path of a supported file that was created or
// written. Newly created directories are added to the watch.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || w.scanner.Excluded(rel) {
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return "", false
	}

	if info.IsDir() {
		if event.Has(fsnotify.Create) && !w.scanner.skipDir(info.Name()) {
			if err := w.addTree(event.Name); err != nil {
				logger.Warn("Cannot watch %s: %v", event.Name, err)
			}
		}
		return "", false
	}

	if !info.Mode().IsRegular() || !w.scanner.Match(event.Name) {
		return "", false
	}
	return event.Name, true
}

// addTree watches dir and every non-excluded directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.scanner.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
