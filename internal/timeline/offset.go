package timeline

import (
	"fmt"
	"time"
)

// Offset is a distance from the incident start time. Minutes and hours are
// exact durations; days are calendar days in the start time's location.
type Offset struct {
	Minutes int `json:"minutes,omitempty"`
	Hours   int `json:"hours,omitempty"`
	Days    int `json:"days,omitempty"`
}

func minutes(n int) Offset { return Offset{Minutes: n} }
func hours(n int) Offset   { return Offset{Hours: n} }
func days(n int) Offset    { return Offset{Days: n} }

// From applies the offset to start.
func (o Offset) From(start time.Time) time.Time {
	t := start.Add(time.Duration(o.Minutes)*time.Minute + time.Duration(o.Hours)*time.Hour)
	if o.Days != 0 {
		t = t.AddDate(0, 0, o.Days)
	}
	return t
}

// String renders the offset the way rule tables list it, e.g. "+72h" or "+5d".
func (o Offset) String() string {
	switch {
	case o.Days != 0 && o.Hours == 0 && o.Minutes == 0:
		return fmt.Sprintf("+%dd", o.Days)
	case o.Hours != 0 && o.Days == 0 && o.Minutes == 0:
		return fmt.Sprintf("+%dh", o.Hours)
	case o.Minutes != 0 && o.Days == 0 && o.Hours == 0:
		return fmt.Sprintf("+%dm", o.Minutes)
	case o == Offset{}:
		return "+0"
	default:
		return fmt.Sprintf("+%dd%dh%dm", o.Days, o.Hours, o.Minutes)
	}
}
