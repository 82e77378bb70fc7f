// Package timelineclickhouse inserts timeline steps into ClickHouse over HTTP.
package timelineclickhouse

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"chronosec/pkg/models"
)

// DefaultTable is the insert target when none is configured.
const DefaultTable = "timeline_steps"

const chTimeLayout = "2006-01-02 15:04:05.000"

// Config configures the ClickHouse HTTP writer.
type Config struct {
	URL      string
	Database string
	Table    string
	Username string
	Password string
	Timeout  time.Duration
	Headers  map[string]string
}

// Row is one timeline step flattened for a DateTime64(3) column layout.
type Row struct {
	SessionID    string   `json:"session_id"`
	DocumentID   string   `json:"document_id"`
	IncidentType string   `json:"incident_type"`
	Framework    string   `json:"framework"`
	Host         string   `json:"host"`
	Source       string   `json:"source"`
	StartTime    string   `json:"start_time"`
	GeneratedAt  string   `json:"generated_at"`
	StepIndex    int      `json:"step_index"`
	StepID       string   `json:"step_id"`
	StepTitle    string   `json:"step_title"`
	StepType     string   `json:"step_type"`
	StepTime     string   `json:"step_time"`
	Description  string   `json:"description"`
	RuleIDs      []string `json:"rule_ids"`
}

// Writer sends timeline steps to ClickHouse via HTTP JSONEachRow.
type Writer struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// NewWriter creates a ClickHouse HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("clickhouse URL is empty")
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	q := fmt.Sprintf("INSERT INTO %s.%s FORMAT JSONEachRow", quoteIdent(cfg.Database), quoteIdent(cfg.Table))
	endpoint := strings.TrimRight(cfg.URL, "/") + "/?query=" + url.QueryEscape(q)

	headers := map[string]string{}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.Username != "" {
		headers["X-ClickHouse-User"] = cfg.Username
	}
	if cfg.Password != "" {
		headers["X-ClickHouse-Key"] = cfg.Password
	}

	return &Writer{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Rows flattens a timeline into one row per step.
func Rows(tl *models.Timeline) []Row {
	ruleIDs := make([]string, 0, len(tl.Labels))
	for _, l := range tl.Labels {
		ruleIDs = append(ruleIDs, l.ID)
	}
	rows := make([]Row, 0, len(tl.Steps))
	for i, s := range tl.Steps {
		rows = append(rows, Row{
			SessionID:    tl.SessionID,
			DocumentID:   tl.DocumentID,
			IncidentType: tl.IncidentType,
			Framework:    tl.Framework,
			Host:         tl.Host,
			Source:       tl.Source,
			StartTime:    chTime(tl.StartTime),
			GeneratedAt:  chTime(tl.GeneratedAt),
			StepIndex:    i,
			StepID:       s.ID,
			StepTitle:    s.Title,
			StepType:     string(s.Type),
			StepTime:     chTime(s.Time),
			Description:  s.Description,
			RuleIDs:      ruleIDs,
		})
	}
	return rows
}

// WriteTimelines sends every step of a batch of timelines.
func (w *Writer) WriteTimelines(timelines []*models.Timeline) error {
	var body bytes.Buffer
	for _, tl := range timelines {
		for _, row := range Rows(tl) {
			data, err := sonic.Marshal(row)
			if err != nil {
				return fmt.Errorf("failed to marshal timeline row: %w", err)
			}
			body.Write(data)
			body.WriteByte('\n')
		}
	}
	if body.Len() == 0 {
		return nil
	}

	req, err := http.NewRequest(http.MethodPost, w.endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("clickhouse request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("clickhouse request failed with status %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Close releases resources.
func (w *Writer) Close() error {
	w.client.CloseIdleConnections()
	return nil
}

func chTime(t time.Time) string {
	if t.IsZero() {
		return "1970-01-01 00:00:00.000"
	}
	return t.UTC().Format(chTimeLayout)
}

func quoteIdent(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "`", "")
	return "`" + v + "`"
}
