// Package views shapes a timeline for the list, calendar and Gantt displays.
package views

import (
	"fmt"
	"time"

	"chronosec/internal/export"
	"chronosec/pkg/models"
)

const day = 24 * time.Hour

// ListItem is a step annotated for the list display.
type ListItem struct {
	models.TimelineStep
	Completed bool          `json:"completed"`
	Offset    time.Duration `json:"offset_ns"`
	Relative  string        `json:"relative"`
}

// ListView is the list display with a completion summary.
type ListView struct {
	Items     []ListItem `json:"items"`
	Completed int        `json:"completed"`
	Total     int        `json:"total"`
	Percent   int        `json:"percent"`
}

// List annotates steps with completion flags and their offset from the first step.
func List(steps []models.TimelineStep, completed map[string]bool) ListView {
	view := ListView{Items: make([]ListItem, 0, len(steps)), Total: len(steps)}
	if len(steps) == 0 {
		return view
	}
	origin := steps[0].Time
	for _, s := range steps {
		done := completed[s.ID]
		if done {
			view.Completed++
		}
		off := s.Time.Sub(origin)
		view.Items = append(view.Items, ListItem{
			TimelineStep: s,
			Completed:    done,
			Offset:       off,
			Relative:     Relative(off),
		})
	}
	view.Percent = view.Completed * 100 / view.Total
	return view
}

// Relative renders an offset as "T+0", "T+30m", "T+4h", "T+3d" or "T+1d 12h".
func Relative(d time.Duration) string {
	if d <= 0 {
		return "T+0"
	}
	days := int(d / day)
	rest := d % day
	hours := int(rest / time.Hour)
	mins := int(rest % time.Hour / time.Minute)
	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("T+%dd %dh", days, hours)
	case days > 0:
		return fmt.Sprintf("T+%dd", days)
	case hours > 0 && mins > 0:
		return fmt.Sprintf("T+%dh %dm", hours, mins)
	case hours > 0:
		return fmt.Sprintf("T+%dh", hours)
	default:
		return fmt.Sprintf("T+%dm", mins)
	}
}

// Phases groups steps into the four response phases used by exported documents.
func Phases(steps []models.TimelineStep) []export.PhaseSteps {
	return export.GroupByPhase(steps)
}
