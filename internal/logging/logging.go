// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var (
	level = new(slog.LevelVar)
	runID = uuid.NewString()
)

// RunID identifies this process run in the shared, appended log file.
func RunID() string { return runID }

// Setup installs a text logger writing to w as the slog default. The level
// stays adjustable through SetDebug.
func Setup(w io.Writer, debug bool) *slog.Logger {
	SetDebug(debug)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).With("run", runID)
	slog.SetDefault(logger)
	return logger
}

// SetDebug switches between debug and info output.
func SetDebug(debug bool) {
	if debug {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// DebugEnabled reports whether debug lines are emitted.
func DebugEnabled() bool {
	return level.Level() <= slog.LevelDebug
}

// OpenFile opens (appending) dir/name for use alongside stderr.
func OpenFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
