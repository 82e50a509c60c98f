package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Sinks describes where the serve command logs.
type Sinks struct {
	// Console defaults to os.Stdout.
	Console io.Writer

	// File, when set, receives every record as a JSON line regardless of
	// the console format.
	File io.Writer

	Debug bool

	// JSON switches the console from pretty output to JSON.
	JSON bool
}

// ForService builds the serve logger: pretty (or JSON) console output and,
// when a file sink is configured, JSON records fanned out through Multi.
func ForService(s Sinks) *slog.Logger {
	console := New(
		WithDebug(s.Debug),
		WithJSON(s.JSON),
		WithPretty(!s.JSON),
		WithWriter(s.Console),
	)
	if s.File == nil {
		return console
	}

	file := New(
		WithDebug(s.Debug),
		WithJSON(true),
		WithWriter(s.File),
	)
	return Multi(console, file)
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
