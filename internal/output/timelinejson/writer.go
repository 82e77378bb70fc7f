// Package timelinejson writes timelines and deadline notices as JSON lines.
package timelinejson

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"chronosec/internal/logger"
	"chronosec/pkg/models"
)

// Writer appends one JSON document per line to a file.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
}

// NewWriter opens path for appending, creating parent directories.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	logger.Infof("Timeline JSON writer initialized: %s", path)
	return &Writer{file: f, buf: bufio.NewWriter(f)}, nil
}

// WriteTimelines writes a batch of timelines.
func (w *Writer) WriteTimelines(timelines []*models.Timeline) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, tl := range timelines {
		if err := w.writeLine(tl); err != nil {
			return fmt.Errorf("failed to encode timeline: %w", err)
		}
	}
	return w.buf.Flush()
}

// WriteAlerts writes a batch of deadline notices.
func (w *Writer) WriteAlerts(alerts []models.DeadlineAlert) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range alerts {
		if err := w.writeLine(&alerts[i]); err != nil {
			return fmt.Errorf("failed to encode alert: %w", err)
		}
	}
	return w.buf.Flush()
}

func (w *Writer) writeLine(v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(data); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

// Close flushes and closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
