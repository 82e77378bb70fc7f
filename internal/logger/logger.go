package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Options configures the global logger.
type Options struct {
	Enabled bool
	Level   string
	File    string
	Console bool
	// Format is "text" (default) or "json".
	Format string
}

var (
	mu      sync.RWMutex
	global  = slog.New(slog.NewTextHandler(io.Discard, nil))
	level   = new(slog.LevelVar)
	logFile *os.File
)

// Init initializes the global logger.
func Init(enabled bool, levelStr, file string, console bool) error {
	return Setup(Options{Enabled: enabled, Level: levelStr, File: file, Console: console})
}

// Setup initializes the global logger from opts.
func Setup(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	closeFileLocked()
	if !opts.Enabled {
		global = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	level.Set(parseLevel(opts.Level))
	var writers []io.Writer

	if opts.File != "" {
		dir := filepath.Dir(opts.File)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		writers = append(writers, f)
	}

	if opts.Console || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	global = slog.New(newHandler(io.MultiWriter(writers...), opts.Format))
	return nil
}

// SetOutput sends log records to w, mainly for tests.
func SetOutput(w io.Writer, levelStr, format string) {
	mu.Lock()
	defer mu.Unlock()
	closeFileLocked()
	level.Set(parseLevel(levelStr))
	global = slog.New(newHandler(w, format))
}

func newHandler(w io.Writer, format string) slog.Handler {
	hopts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, hopts)
	}
	return slog.NewTextHandler(w, hopts)
}

func closeFileLocked() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Close releases the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeFileLocked()
}

// Slog returns the structured logger behind the printf helpers.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func logf(lvl slog.Level, format string, args ...interface{}) {
	l := Slog()
	ctx := context.Background()
	if !l.Enabled(ctx, lvl) {
		return
	}
	l.Log(ctx, lvl, fmt.Sprintf(format, args...))
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) { logf(slog.LevelDebug, format, args...) }

// Infof logs an info message.
func Infof(format string, args ...interface{}) { logf(slog.LevelInfo, format, args...) }

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) { logf(slog.LevelWarn, format, args...) }

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) { logf(slog.LevelError, format, args...) }
