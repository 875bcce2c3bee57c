package preferences

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

type StateStore interface {
	Dispatch(action domain.Action) store.Snapshot
	Snapshot() store.Snapshot
}

// Watcher re-applies the preference file after it changes on disk.
type Watcher struct {
	path     string
	store    StateStore
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
}

func NewWatcher(path string, st StateStore, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve preferences path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// The directory is watched so editors that replace the file are seen.
	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}
	return &Watcher{path: absPath, store: st, watcher: fw, debounce: debounce, logger: logger}, nil
}

// Reload applies the file once. A missing file is not an error.
func (w *Watcher) Reload() error {
	f, err := Load(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		w.logger.Debug("preferences file absent", "path", w.path)
		return nil
	}
	if err != nil {
		return err
	}
	actions := f.Actions()
	Apply(w.store, f)
	w.logger.Info("preferences applied", "path", w.path, "sections", len(actions))
	return nil
}

// Run applies the file, then watches it until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	if err := w.Reload(); err != nil {
		w.logger.Error("failed to apply preferences", "err", err)
	}

	name := filepath.Base(w.path)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("preferences watcher error", "err", err)
		case <-pending:
			pending = nil
			if err := w.Reload(); err != nil {
				w.logger.Error("failed to reload preferences", "err", err)
			}
		}
	}
}
