package models

import "time"

// StepType is the category of a timeline step.
type StepType string

const (
	StepIdentify  StepType = "identify"
	StepNotify    StepType = "notify"
	StepContain   StepType = "contain"
	StepDocument  StepType = "document"
	StepRemediate StepType = "remediate"
	StepReport    StepType = "report"
	StepAssess    StepType = "assess"
	StepAnalyze   StepType = "analyze"
	StepReview    StepType = "review"
)

// StepTypes lists every step category in display order.
var StepTypes = []StepType{
	StepIdentify,
	StepNotify,
	StepContain,
	StepDocument,
	StepRemediate,
	StepReport,
	StepAssess,
	StepAnalyze,
	StepReview,
}

// Valid reports whether t is one of the known step categories.
func (t StepType) Valid() bool {
	for _, known := range StepTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TimelineStep is one dated entry in a response timeline.
type TimelineStep struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Time        time.Time `json:"time"`
	Type        StepType  `json:"type"`
}
