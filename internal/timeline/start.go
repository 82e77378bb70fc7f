package timeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"chronosec/pkg/models"
)

// ErrOutOfRange is returned by CheckRange for a step outside years 0-9999.
var ErrOutOfRange = errors.New("timeline extends past 9999-12-31")

// CheckRange reports whether every step time can be written as RFC 3339,
// which needs a four-digit year. Generated offsets reach up to 90 days past the start.
func CheckRange(steps []models.TimelineStep) error {
	for _, s := range steps {
		if y := s.Time.Year(); y < 0 || y > 9999 {
			return fmt.Errorf("%w: step %q at year %d", ErrOutOfRange, s.ID, s.Time.Year())
		}
	}
	return nil
}

// startLayouts are accepted besides RFC 3339. They carry no zone and are read as UTC.
var startLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseStart reads an incident start time. Empty means now.
func ParseStart(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid startTime %q", s)
}
