// Package logging sets up the structured logger shared by every hitdesk component.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// maxLogSize is the maximum log file size before rotation (5 MB).
	maxLogSize = 5 * 1024 * 1024
	// maxLogBackups is the number of rotated log files to keep.
	maxLogBackups = 3

	// Stderr selects standard error instead of a log file.
	Stderr = "-"
)

type Config struct {
	// Path of the log file, or Stderr.
	Path  string
	Debug bool
}

// Setup builds a JSON logger. The returned cleanup func closes the log file
// and is never nil.
func Setup(cfg Config) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }

	var (
		w       io.Writer
		cleanup = noop
	)

	if cfg.Path == "" || cfg.Path == Stderr {
		w = os.Stderr
	} else {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, noop, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}

		if err := rotateIfNeeded(cfg.Path); err != nil {
			return nil, noop, fmt.Errorf("failed to rotate log file: %w", err)
		}

		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open log file %s: %w", cfg.Path, err)
		}
		w = f
		cleanup = f.Close
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.Debug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})

	logger := slog.New(h)
	logger.Debug("logger initialized", slog.String("path", cfg.Path))
	return logger, cleanup, nil
}

// rotateIfNeeded renames path to path.1 (shifting older backups) once it
// reaches maxLogSize.
func rotateIfNeeded(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if info.Size() < maxLogSize {
		return nil
	}

	for i := maxLogBackups; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", path, i)
		if i == maxLogBackups {
			_ = os.Remove(src)
			continue
		}
		_ = os.Rename(src, fmt.Sprintf("%s.%d", path, i+1))
	}

	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return nil
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError + 1,
	}))
}
