package views

import (
	"time"

	"chronosec/internal/timeline"
	"chronosec/pkg/models"
)

var barDays = map[models.StepType]int{
	models.StepIdentify:  1,
	models.StepNotify:    1,
	models.StepContain:   3,
	models.StepDocument:  2,
	models.StepRemediate: 5,
	models.StepReport:    2,
	models.StepAssess:    2,
	models.StepAnalyze:   3,
	models.StepReview:    2,
}

// BarDays is the bar length in days drawn for a step type.
func BarDays(t models.StepType) int {
	if n, ok := barDays[t]; ok {
		return n
	}
	return 1
}

// GanttBar is one step drawn on the chart.
type GanttBar struct {
	Step         models.TimelineStep `json:"step"`
	StartDay     int                 `json:"start_day"`
	DurationDays int                 `json:"duration_days"`
	LeftPercent  float64             `json:"left_percent"`
	WidthPercent float64             `json:"width_percent"`
}

// GanttWeek is a seven day header window.
type GanttWeek struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Steps []string  `json:"steps,omitempty"`
}

// GanttChart is the Gantt display of a timeline.
type GanttChart struct {
	Start     time.Time   `json:"start"`
	End       time.Time   `json:"end"`
	TotalDays int         `json:"total_days"`
	Bars      []GanttBar  `json:"bars"`
	Weeks     []GanttWeek `json:"weeks"`
}

// Gantt lays steps out as bars measured in whole days from the earliest step.
func Gantt(steps []models.TimelineStep) GanttChart {
	if len(steps) == 0 {
		return GanttChart{}
	}
	sorted := timeline.Sorted(steps)

	chart := GanttChart{
		Start: sorted[0].Time,
		End:   sorted[len(sorted)-1].Time,
	}
	chart.TotalDays = wholeDays(chart.End.Sub(chart.Start)) + 1
	total := float64(chart.TotalDays)

	for _, s := range sorted {
		startDay := wholeDays(s.Time.Sub(chart.Start))
		dur := BarDays(s.Type)
		chart.Bars = append(chart.Bars, GanttBar{
			Step:         s,
			StartDay:     startDay,
			DurationDays: dur,
			LeftPercent:  float64(startDay) / total * 100,
			WidthPercent: float64(dur) / total * 100,
		})
	}

	weeks := (chart.TotalDays + 6) / 7
	for i := 0; i < weeks; i++ {
		ws := chart.Start.AddDate(0, 0, i*7)
		w := GanttWeek{Index: i, Start: ws, End: ws.AddDate(0, 0, 6)}
		next := ws.AddDate(0, 0, 7)
		for _, s := range sorted {
			if !s.Time.Before(ws) && s.Time.Before(next) {
				w.Steps = append(w.Steps, s.ID)
			}
		}
		chart.Weeks = append(chart.Weeks, w)
	}
	return chart
}

func wholeDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / day)
}
