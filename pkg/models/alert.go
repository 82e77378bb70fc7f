package models

import "time"

// DeadlineState classifies a pending step relative to the current time.
type DeadlineState string

const (
	DeadlineDueSoon DeadlineState = "due_soon"
	DeadlineOverdue DeadlineState = "overdue"
)

// DeadlineAlert flags a step that is close to, or past, its deadline.
type DeadlineAlert struct {
	AlertID   string        `json:"alert_id"`
	SessionID string        `json:"session_id,omitempty"`
	StepID    string        `json:"step_id"`
	Title     string        `json:"title"`
	Type      StepType      `json:"type"`
	Due       time.Time     `json:"due"`
	State     DeadlineState `json:"state"`
	Remaining time.Duration `json:"remaining_ns"`
	RaisedAt  time.Time     `json:"raised_at"`
}
