package timelinehttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chronosec/internal/timeline"
	"chronosec/pkg/models"
)

func TestWriterPostsBatches(t *testing.T) {
	var got []map[string]interface{}
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Token") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		paths = append(paths, r.URL.Path)
		var batch []map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		got = append(got, batch...)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL + "/timelines", AlertURL: srv.URL + "/alerts", Headers: map[string]string{"X-Token": "secret"}})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()

	tl := timeline.Build("ddos", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "ferc")
	if err := w.WriteTimelines([]*models.Timeline{&tl}); err != nil {
		t.Fatalf("write timelines: %v", err)
	}
	if err := w.WriteAlerts([]models.DeadlineAlert{{StepID: "ferc_notification", State: models.DeadlineDueSoon}}); err != nil {
		t.Fatalf("write alerts: %v", err)
	}
	if err := w.WriteTimelines(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	if len(got) != 2 || len(paths) != 2 {
		t.Fatalf("expected 2 posted documents, got %d", len(got))
	}
	if paths[0] != "/timelines" || paths[1] != "/alerts" {
		t.Fatalf("unexpected paths %v", paths)
	}
	if got[0]["framework"] != "ferc" || got[1]["state"] != "due_soon" {
		t.Fatalf("unexpected payloads %v", got)
	}
}

func TestWriterReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	tl := timeline.Build("ddos", time.Now(), "")
	if err := w.WriteTimelines([]*models.Timeline{&tl}); err == nil {
		t.Fatal("expected error for 503")
	}
	if _, err := NewWriter(Config{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
