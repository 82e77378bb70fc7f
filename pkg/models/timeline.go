package models

import "time"

// Timeline is a generated step list together with the inputs that produced it.
type Timeline struct {
	DocumentID   string         `json:"document_id,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	IncidentType string         `json:"incident_type"`
	Framework    string         `json:"framework"`
	StartTime    time.Time      `json:"start_time"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Source       string         `json:"source,omitempty"`
	Host         string         `json:"host,omitempty"`
	Labels       []RuleLabel    `json:"labels,omitempty"`
	Steps        []TimelineStep `json:"steps"`
}

// Step returns the step with the given id.
func (t *Timeline) Step(id string) (TimelineStep, bool) {
	if t == nil {
		return TimelineStep{}, false
	}
	for _, s := range t.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return TimelineStep{}, false
}

// End returns the time of the last step, or the start time for an empty timeline.
func (t *Timeline) End() time.Time {
	if t == nil {
		return time.Time{}
	}
	if len(t.Steps) == 0 {
		return t.StartTime
	}
	return t.Steps[len(t.Steps)-1].Time
}
