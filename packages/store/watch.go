package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounceDelay is the debounce delay for library file events
const WatchDebounceDelay = 300 * time.Millisecond

// Watch reloads the library whenever its file changes on disk and hands the
// result to onChange. It blocks until ctx is done. The data directory is
// watched rather than the file, so atomic replacements are seen.
func (s *JSONStore) Watch(ctx context.Context, onChange func(*Document, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	s.logger.Debug("watching library", slog.String("dir", s.dir))

	// onChange runs on this goroutine, so calls never overlap and none
	// happens after Watch returns.
	debounce := time.NewTimer(WatchDebounceDelay)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != s.fileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			debounce.Reset(WatchDebounceDelay)

		case <-debounce.C:
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Debug("library changed on disk", slog.String("path", s.Path()))
			onChange(s.Load())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("library watcher error", slog.Any("error", err))
		}
	}
}
