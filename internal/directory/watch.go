package directory

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"patientsearch/internal/eventbus"
)

// reloadDelay collapses bursts of write events from editors
const reloadDelay = 200 * time.Millisecond

// WatchRoster reloads the roster at path into p whenever the file changes.
// It blocks until ctx is done. A roster that fails to load leaves the
// previous one in place.
func WatchRoster(ctx context.Context, path string, p *LocalProvider, bus eventbus.EventBus, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("roster")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create roster watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so atomic renames by editors are seen
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve roster path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch roster directory: %w", err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(reloadDelay)
			fire = timer.C

		case <-fire:
			fire = nil
			patients, err := LoadRoster(abs)
			if err != nil {
				logger.Warn("roster reload failed, keeping previous roster", zap.String("path", abs), zap.Error(err))
				continue
			}
			p.Replace(patients)
			logger.Info("roster reloaded", zap.String("path", abs), zap.Int("patients", len(patients)))
			if bus != nil {
				bus.Publish(eventbus.RosterReloadedEvent{Path: abs, Patients: len(patients)})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("roster watcher error", zap.Error(err))
		}
	}
}
