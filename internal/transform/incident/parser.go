// Package incident normalizes detection alerts received on the intake queue.
package incident

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"chronosec/internal/logger"
	"chronosec/pkg/models"
)

var reservedKeys = map[string]struct{}{
	"@timestamp":    {},
	"detected_at":   {},
	"incident_type": {},
	"framework":     {},
	"host":          {},
	"hostname":      {},
	"agent":         {},
	"agent_id":      {},
	"source":        {},
	"fields":        {},
	"event_data":    {},
}

// Parse converts a JSON alert into an IncidentEvent. Alerts without a
// readable timestamp are stamped with received.
func Parse(data []byte, received time.Time) (*models.IncidentEvent, error) {
	var raw map[string]interface{}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode incident: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode incident: payload is not an object")
	}

	event := &models.IncidentEvent{
		Fields: make(map[string]interface{}),
		Raw:    raw,
	}

	event.Timestamp = received.UTC()
	if ts := getString(raw, "@timestamp", "detected_at"); ts != "" {
		if t, ok := parseTime(ts); ok {
			event.Timestamp = t
		} else {
			logger.Warnf("Unparseable incident timestamp %q, using receive time", ts)
		}
	}

	event.IncidentType = strings.ToLower(strings.TrimSpace(getString(raw, "incident_type")))
	event.Framework = strings.ToLower(strings.TrimSpace(getString(raw, "framework")))
	event.AgentID = getString(raw, "agent.id", "agent_id")
	event.Hostname = getString(raw, "host.name", "host.hostname", "hostname")
	event.Source = getString(raw, "source", "event.provider")

	for _, path := range []string{"fields", "event_data", "winlog.event_data"} {
		if v, ok := getPath(raw, path); ok {
			if m, ok := v.(map[string]interface{}); ok {
				event.Fields = m
				return event, nil
			}
		}
	}
	for k, v := range raw {
		if _, reserved := reservedKeys[k]; !reserved {
			event.Fields[k] = v
		}
	}
	return event, nil
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05.000",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
	} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func getString(root map[string]interface{}, paths ...string) string {
	for _, path := range paths {
		if v, ok := getPath(root, path); ok {
			switch val := v.(type) {
			case string:
				return val
			case fmt.Stringer:
				return val.String()
			case int:
				return fmt.Sprintf("%d", val)
			case int64:
				return fmt.Sprintf("%d", val)
			case float64:
				if val == float64(int64(val)) {
					return fmt.Sprintf("%d", int64(val))
				}
				return fmt.Sprintf("%f", val)
			}
		}
	}
	return ""
}

func getPath(root map[string]interface{}, path string) (interface{}, bool) {
	if v, ok := root[path]; ok {
		return v, true
	}
	parts := strings.Split(path, ".")
	var current interface{} = root
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		current = v
	}
	return current, true
}
