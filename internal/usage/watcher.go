package usage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goodtune/svcint/internal/source"
)

// DefaultDebounce is how long the watcher waits for writes to settle
const DefaultDebounce = 500 * time.Millisecond

// Watch refreshes the report whenever either input file is written or
// replaced. It blocks until ctx is cancelled.
func (t *Tracker) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	targets := make(map[string]bool)
	for _, path := range []string{t.config.ActivitiesPath, t.config.RegistryPath} {
		resolved, err := source.Resolve(path)
		if err != nil {
			return err
		}
		targets[resolved] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Directories are watched so files replaced by rename are still seen
	watched := make(map[string]bool)
	for path := range targets {
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = true
		t.logger.Debug().Str("dir", dir).Msg("Watching input directory")
	}

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			t.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Input changed")
			settle = time.After(debounce)

		case <-settle:
			settle = nil
			// Refresh logs its own failures and keeps the previous report
			_, _ = t.Refresh(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}
