// Package timelinehttp posts timelines and deadline notices to an HTTP endpoint.
package timelinehttp

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"chronosec/pkg/models"
)

// Config configures the HTTP writer.
type Config struct {
	URL string
	// AlertURL receives deadline notices. Defaults to URL.
	AlertURL string
	Timeout  time.Duration
	Headers  map[string]string
}

// Writer sends JSON arrays to a remote endpoint.
type Writer struct {
	url      string
	alertURL string
	headers  map[string]string
	client   *http.Client
}

// NewWriter creates an HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http output URL is empty")
	}
	if cfg.AlertURL == "" {
		cfg.AlertURL = cfg.URL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Writer{
		url:      cfg.URL,
		alertURL: cfg.AlertURL,
		headers:  cfg.Headers,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// WriteTimelines posts a batch of timelines.
func (w *Writer) WriteTimelines(timelines []*models.Timeline) error {
	if len(timelines) == 0 {
		return nil
	}
	return w.post(w.url, timelines)
}

// WriteAlerts posts a batch of deadline notices.
func (w *Writer) WriteAlerts(alerts []models.DeadlineAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	return w.post(w.alertURL, alerts)
}

func (w *Writer) post(url string, payload interface{}) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http request failed with status %s", resp.Status)
	}
	return nil
}

// Close releases HTTP resources.
func (w *Writer) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
