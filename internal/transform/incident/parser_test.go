package incident

import (
	"testing"
	"time"
)

var received = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestParseECSAlert(t *testing.T) {
	data := []byte(`{
		"@timestamp": "2024-02-29T23:15:00.123+01:00",
		"incident_type": "Ransomware",
		"framework": "GDPR",
		"host": {"name": "fs-01"},
		"agent": {"id": "a-42"},
		"source": "edr",
		"fields": {"CommandLine": "vssadmin delete shadows", "EventID": 1}
	}`)

	ev, err := Parse(data, received)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2024, 2, 29, 22, 15, 0, 123000000, time.UTC)
	if !ev.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %s, want %s", ev.Timestamp, want)
	}
	if ev.IncidentType != "ransomware" || ev.Framework != "gdpr" {
		t.Fatalf("unexpected type/framework: %q %q", ev.IncidentType, ev.Framework)
	}
	if ev.Hostname != "fs-01" || ev.AgentID != "a-42" || ev.Source != "edr" {
		t.Fatalf("unexpected host/agent/source: %+v", ev)
	}
	if ev.Field("CommandLine") != "vssadmin delete shadows" || ev.Field("EventID") != "1" {
		t.Fatalf("unexpected fields: %+v", ev.Fields)
	}
}

func TestParseFlatAlert(t *testing.T) {
	data := []byte(`{"detected_at": "2024-02-01 08:30:00", "hostname": "mail-gw", "agent_id": "7", "Subject": "invoice", "sender": "x@example.com"}`)

	ev, err := Parse(data, received)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !ev.Timestamp.Equal(time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %s", ev.Timestamp)
	}
	if ev.Hostname != "mail-gw" || ev.AgentID != "7" {
		t.Fatalf("unexpected host/agent: %+v", ev)
	}
	if len(ev.Fields) != 2 || ev.Field("Subject") != "invoice" {
		t.Fatalf("expected unreserved keys as fields, got %+v", ev.Fields)
	}
	if ev.IncidentType != "" {
		t.Fatalf("expected empty incident type, got %q", ev.IncidentType)
	}
}

func TestParseEventData(t *testing.T) {
	ev, err := Parse([]byte(`{"event_data": {"Image": "C:\\x.exe"}}`), received)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Field("Image") != `C:\x.exe` {
		t.Fatalf("unexpected fields: %+v", ev.Fields)
	}
}

func TestParseTimestampFallback(t *testing.T) {
	for _, data := range []string{`{}`, `{"@timestamp": "yesterday"}`} {
		ev, err := Parse([]byte(data), received)
		if err != nil {
			t.Fatalf("parse %s: %v", data, err)
		}
		if !ev.Timestamp.Equal(received) {
			t.Fatalf("%s: timestamp = %s, want receive time", data, ev.Timestamp)
		}
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	for _, data := range []string{`not json`, `null`, `[1,2]`} {
		if _, err := Parse([]byte(data), received); err == nil {
			t.Fatalf("expected error for %s", data)
		}
	}
}
