package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

// Store holds the current catalog snapshot and supports wholesale refresh.
// Readers always see a complete snapshot; a reload swaps the pointer in one
// step and never mutates a snapshot in place.
type Store struct {
	current atomic.Pointer[InMemory]
	logger  *slog.Logger
}

// NewStore creates a store seeded with the given snapshot.
func NewStore(initial *InMemory, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{logger: logger}
	s.current.Store(initial)
	return s
}

// Snapshot returns the current immutable catalog.
func (s *Store) Snapshot() *InMemory {
	return s.current.Load()
}

// Apps implements Catalog against the current snapshot.
func (s *Store) Apps() []string {
	return s.Snapshot().Apps()
}

// Functions implements Catalog against the current snapshot.
func (s *Store) Functions(app string) []FunctionDescriptor {
	return s.Snapshot().Functions(app)
}

// LoadFile reads and parses a catalog file and swaps it in.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading catalog file %s", path)
	}
	snapshot, err := Parse(data)
	if err != nil {
		return err
	}
	s.current.Store(snapshot)
	s.logger.Info("catalog loaded",
		"path", path,
		"apps", len(snapshot.Apps()),
	)
	return nil
}

// debounceWindow coalesces editor write bursts into a single reload.
const debounceWindow = 250 * time.Millisecond

// Watch reloads the catalog whenever the file changes, until ctx is done.
// A reload that fails to parse keeps the previous snapshot and logs a warning.
func (s *Store) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating catalog watcher")
	}

	// Watch the directory: editors often replace the file, which drops
	// a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "watching catalog directory for %s", path)
	}

	go func() {
		defer watcher.Close()

		var pending *time.Timer
		reload := func() {
			if err := s.LoadFile(path); err != nil {
				s.logger.Warn("catalog reload failed, keeping previous snapshot",
					"path", path,
					"error", err,
				)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(debounceWindow, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("catalog watcher error", "error", err)
			}
		}
	}()

	return nil
}
