package views

import (
	"time"

	"chronosec/pkg/models"
)

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date  time.Time             `json:"date"`
	Steps []models.TimelineStep `json:"steps"`
}

// CalendarMonth is a month grid starting on Sunday.
type CalendarMonth struct {
	Year           int           `json:"year"`
	Month          time.Month    `json:"month"`
	LeadingBlanks  int           `json:"leading_blanks"`
	TrailingBlanks int           `json:"trailing_blanks"`
	Days           []CalendarDay `json:"days"`
}

// Calendar buckets steps into the days of the month containing month, using
// loc to decide which day a step falls on. A nil loc means month's location.
func Calendar(steps []models.TimelineStep, month time.Time, loc *time.Location) CalendarMonth {
	if loc == nil {
		loc = month.Location()
	}
	month = month.In(loc)
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	cal := CalendarMonth{
		Year:           first.Year(),
		Month:          first.Month(),
		LeadingBlanks:  int(first.Weekday()),
		TrailingBlanks: 6 - int(last.Weekday()),
	}
	buckets := make(map[int][]models.TimelineStep)
	for _, s := range steps {
		t := s.Time.In(loc)
		if t.Year() != cal.Year || t.Month() != cal.Month {
			continue
		}
		buckets[t.Day()] = append(buckets[t.Day()], s)
	}
	for d := 1; d <= last.Day(); d++ {
		cal.Days = append(cal.Days, CalendarDay{
			Date:  time.Date(cal.Year, cal.Month, d, 0, 0, 0, 0, loc),
			Steps: buckets[d],
		})
	}
	return cal
}

// Months lists the first day of every month touched by steps, in order.
func Months(steps []models.TimelineStep, loc *time.Location) []time.Time {
	if len(steps) == 0 {
		return nil
	}
	if loc == nil {
		loc = steps[0].Time.Location()
	}
	lo, hi := steps[0].Time, steps[0].Time
	for _, s := range steps[1:] {
		if s.Time.Before(lo) {
			lo = s.Time
		}
		if s.Time.After(hi) {
			hi = s.Time
		}
	}
	lo, hi = lo.In(loc), hi.In(loc)
	cur := time.Date(lo.Year(), lo.Month(), 1, 0, 0, 0, 0, loc)
	end := time.Date(hi.Year(), hi.Month(), 1, 0, 0, 0, 0, loc)
	var out []time.Time
	for !cur.After(end) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}
