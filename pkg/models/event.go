package models

import (
	"fmt"
	"time"
)

// IncidentEvent is a detection alert received on the intake queue.
type IncidentEvent struct {
	Timestamp    time.Time              `json:"@timestamp"`
	IncidentType string                 `json:"incident_type,omitempty"`
	Framework    string                 `json:"framework,omitempty"`
	AgentID      string                 `json:"agent_id,omitempty"`
	Hostname     string                 `json:"hostname,omitempty"`
	Source       string                 `json:"source,omitempty"`
	Fields       map[string]interface{} `json:"fields"`
	Labels       []RuleLabel            `json:"labels,omitempty"`

	Raw map[string]interface{} `json:"-"`
}

// Field returns a field value rendered as a string.
func (e *IncidentEvent) Field(name string) string {
	if e == nil || e.Fields == nil {
		return ""
	}
	if v, ok := e.Fields[name]; ok {
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
		case bool:
			if val {
				return "true"
			}
			return "false"
		default:
			return fmt.Sprintf("%v", val)
		}
	}
	return ""
}
