package models

// RuleLabel records a detection rule that matched an intake event.
type RuleLabel struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Severity     string `json:"severity,omitempty"`
	IncidentType string `json:"incident_type,omitempty"`
	Tactic       string `json:"tactic,omitempty"`
	Technique    string `json:"technique,omitempty"`
}
