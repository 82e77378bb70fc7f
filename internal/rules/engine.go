// Package rules classifies intake events into incident types.
package rules

import "chronosec/pkg/models"

// UnknownIncident is the incident type assigned when no rule matches.
const UnknownIncident = "unknown"

// Classifier derives an incident type from an event.
type Classifier interface {
	Classify(event *models.IncidentEvent) (string, []models.RuleLabel)
}

// NoopClassifier trusts the event and otherwise returns UnknownIncident.
type NoopClassifier struct{}

// Classify returns the event's own incident type, or UnknownIncident.
func (n *NoopClassifier) Classify(event *models.IncidentEvent) (string, []models.RuleLabel) {
	if event != nil && event.IncidentType != "" {
		return event.IncidentType, nil
	}
	return UnknownIncident, nil
}
