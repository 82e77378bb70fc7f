package pipeline

import (
	"context"

	"chronosec/pkg/models"
)

// Source yields raw intake payloads.
type Source interface {
	// Pop returns the next payload, or nil when none arrived before its timeout.
	Pop(ctx context.Context) ([]byte, error)
	// DeadLetter parks a payload that could not be parsed.
	DeadLetter(ctx context.Context, payload []byte) error
	Close() error
}

// TimelineWriter writes generated timelines.
type TimelineWriter interface {
	WriteTimelines(timelines []*models.Timeline) error
	Close() error
}

// AlertWriter writes deadline notices.
type AlertWriter interface {
	WriteAlerts(alerts []models.DeadlineAlert) error
	Close() error
}
