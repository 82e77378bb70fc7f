// Package timeline builds compliance-aligned incident response timelines
// from per-framework rule tables.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"chronosec/pkg/models"
)

// Generate returns the response steps for an incident of the given type that
// started at start, following the obligations of framework. Unknown or empty
// frameworks use the default rule set; unknown incident types fire no
// conditional steps. The result always begins with the detect step and is
// sorted by time.
func Generate(incidentType string, start time.Time, framework string) []models.TimelineStep {
	name := Resolve(framework)
	table := ruleSets[name]

	steps := make([]models.TimelineStep, 0, len(table)+1)
	steps = append(steps, detectRule.step(start))
	for _, r := range table {
		if !Applies(name, r.ID, incidentType) {
			continue
		}
		steps = append(steps, r.step(start))
	}
	sortByTime(steps)
	return steps
}

// Build wraps Generate with the timeline metadata.
func Build(incidentType string, start time.Time, framework string) models.Timeline {
	return models.Timeline{
		IncidentType: incidentType,
		Framework:    framework,
		StartTime:    start,
		GeneratedAt:  time.Now().UTC(),
		Steps:        Generate(incidentType, start, framework),
	}
}

// Sorted returns a copy of steps ordered by time. Steps with equal times keep
// their relative order.
func Sorted(steps []models.TimelineStep) []models.TimelineStep {
	out := make([]models.TimelineStep, len(steps))
	copy(out, steps)
	sortByTime(out)
	return out
}

func sortByTime(steps []models.TimelineStep) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Time.Before(steps[j].Time)
	})
}

// ErrEmptyTimeline is returned by Validate for a timeline without steps.
var ErrEmptyTimeline = errors.New("timeline has no steps")

// Validate checks steps that did not come from Generate, such as model output
// or imported documents. Order is not checked; pass the result through Sorted.
func Validate(steps []models.TimelineStep, start time.Time) error {
	if len(steps) == 0 {
		return ErrEmptyTimeline
	}
	seen := make(map[string]struct{}, len(steps))
	for i, s := range steps {
		if s.ID == "" {
			return fmt.Errorf("step %d: missing id", i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("step %q: duplicate id", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Title == "" {
			return fmt.Errorf("step %q: missing title", s.ID)
		}
		if !s.Type.Valid() {
			return fmt.Errorf("step %q: unknown type %q", s.ID, s.Type)
		}
		if s.Time.IsZero() {
			return fmt.Errorf("step %q: missing time", s.ID)
		}
		if s.Time.Before(start) {
			return fmt.Errorf("step %q: time %s precedes start %s", s.ID, s.Time.Format(time.RFC3339), start.Format(time.RFC3339))
		}
	}
	return nil
}

// EnsureDetect returns steps with the detect step at start, replacing any
// detect step whose time or type drifted.
func EnsureDetect(steps []models.TimelineStep, start time.Time) []models.TimelineStep {
	want := detectRule.step(start)
	out := make([]models.TimelineStep, 0, len(steps)+1)
	out = append(out, want)
	for _, s := range steps {
		if s.ID == DetectStepID {
			if s.Title != "" {
				out[0].Title = s.Title
			}
			if s.Description != "" {
				out[0].Description = s.Description
			}
			continue
		}
		out = append(out, s)
	}
	sortByTime(out)
	return out
}
