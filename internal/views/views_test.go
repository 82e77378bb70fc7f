package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronosec/internal/timeline"
	"chronosec/pkg/models"
)

var start = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestList(t *testing.T) {
	steps := timeline.Generate("data_breach", start, "gdpr")
	view := List(steps, map[string]bool{"detect": true, "internal_notify": true, "ghost": true})

	require.Len(t, view.Items, 8)
	assert.Equal(t, 2, view.Completed)
	assert.Equal(t, 8, view.Total)
	assert.Equal(t, 25, view.Percent)
	assert.True(t, view.Items[0].Completed)
	assert.False(t, view.Items[2].Completed)
	assert.Equal(t, "T+0", view.Items[0].Relative)
	assert.Equal(t, "T+1h", view.Items[1].Relative)
	assert.Equal(t, "T+3d", view.Items[4].Relative)
}

func TestListEmpty(t *testing.T) {
	view := List(nil, nil)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Percent)
}

func TestRelative(t *testing.T) {
	assert.Equal(t, "T+30m", Relative(30*time.Minute))
	assert.Equal(t, "T+1h 30m", Relative(90*time.Minute))
	assert.Equal(t, "T+1d 12h", Relative(36*time.Hour))
	assert.Equal(t, "T+0", Relative(-time.Hour))
}

func TestCalendar(t *testing.T) {
	steps := timeline.Generate("data_breach", start, "gdpr")
	cal := Calendar(steps, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), nil)

	assert.Equal(t, 2024, cal.Year)
	assert.Equal(t, time.January, cal.Month)
	require.Len(t, cal.Days, 31)
	// January 1, 2024 is a Monday; January 31 a Wednesday.
	assert.Equal(t, 1, cal.LeadingBlanks)
	assert.Equal(t, 3, cal.TrailingBlanks)

	assert.Len(t, cal.Days[0].Steps, 4)
	assert.Equal(t, "authority_notification", cal.Days[3].Steps[0].ID)
	assert.Equal(t, "final_documentation", cal.Days[14].Steps[0].ID)
	assert.Empty(t, cal.Days[20].Steps)
}

func TestCalendarBucketsInLocation(t *testing.T) {
	late := time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC)
	steps := []models.TimelineStep{{ID: "x", Time: late, Type: models.StepNotify}}
	west := time.FixedZone("UTC-5", -5*3600)

	cal := Calendar(steps, time.Date(2024, 1, 1, 0, 0, 0, 0, west), west)
	assert.Equal(t, "x", cal.Days[30].Steps[0].ID)

	cal = Calendar(steps, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, "x", cal.Days[0].Steps[0].ID)
}

func TestMonths(t *testing.T) {
	steps := timeline.Generate("data_breach", start, "hipaa")
	months := Months(steps, time.UTC)
	// The annual report lands on March 31 in a leap year.
	require.Len(t, months, 3)
	assert.Equal(t, time.January, months[0].Month())
	assert.Equal(t, time.March, months[2].Month())
	assert.Nil(t, Months(nil, nil))
}

func TestGantt(t *testing.T) {
	steps := timeline.Generate("data_breach", start, "gdpr")
	chart := Gantt(steps)

	assert.Equal(t, 15, chart.TotalDays)
	require.Len(t, chart.Bars, 8)
	assert.Equal(t, 0, chart.Bars[0].StartDay)
	assert.Equal(t, 1, chart.Bars[0].DurationDays)

	var remediation GanttBar
	for _, b := range chart.Bars {
		if b.Step.ID == "remediation" {
			remediation = b
		}
	}
	assert.Equal(t, 5, remediation.StartDay)
	assert.Equal(t, 5, remediation.DurationDays)
	assert.InDelta(t, 5.0/15*100, remediation.LeftPercent, 1e-9)

	require.Len(t, chart.Weeks, 3)
	assert.Equal(t, start, chart.Weeks[0].Start)
	assert.Equal(t, start.AddDate(0, 0, 6), chart.Weeks[0].End)
	assert.Contains(t, chart.Weeks[0].Steps, "authority_notification")
	assert.Equal(t, []string{"final_documentation"}, chart.Weeks[2].Steps)
}

func TestGanttSortsInput(t *testing.T) {
	steps := []models.TimelineStep{
		{ID: "late", Time: start.AddDate(0, 0, 2), Type: models.StepReport},
		{ID: "early", Time: start, Type: models.StepIdentify},
	}
	chart := Gantt(steps)
	assert.Equal(t, "early", chart.Bars[0].Step.ID)
	assert.Equal(t, 3, chart.TotalDays)
	assert.Equal(t, "late", steps[0].ID)
}

func TestGanttEmpty(t *testing.T) {
	assert.Equal(t, GanttChart{}, Gantt(nil))
}

func TestBarDays(t *testing.T) {
	assert.Equal(t, 5, BarDays(models.StepRemediate))
	assert.Equal(t, 1, BarDays("other"))
}

func TestPhases(t *testing.T) {
	groups := Phases(timeline.Generate("ransomware", start, "nist"))
	require.Len(t, groups, 4)
	assert.Equal(t, "Detection & Initial Response", groups[0].Title)
}
