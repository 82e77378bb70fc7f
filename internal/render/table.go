// Package render draws timelines as fixed-width terminal tables.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"chronosec/internal/catalog"
	"chronosec/internal/timeline"
	"chronosec/internal/views"
	"chronosec/pkg/models"
)

const (
	defaultWidth = 100
	minWidth     = 60
	columnGap    = "  "
)

// TerminalWidth reports the width of f when it is a terminal, else a default.
func TerminalWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w < minWidth {
		return defaultWidth
	}
	return w
}

// PadString pads s with spaces to a display width.
func PadString(s string, width int) string {
	if d := runewidth.StringWidth(s); d < width {
		return s + strings.Repeat(" ", width-d)
	}
	return s
}

// Table is a set of rows under a header. The last column absorbs any width left over.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Write renders t into at most width display columns.
func (t Table) Write(w io.Writer, width int) error {
	if len(t.Headers) == 0 {
		return nil
	}
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i := range widths {
			if i < len(row) {
				if d := runewidth.StringWidth(row[i]); d > widths[i] {
					widths[i] = d
				}
			}
		}
	}

	last := len(widths) - 1
	used := 0
	for i := 0; i < last; i++ {
		used += widths[i] + len(columnGap)
	}
	if room := width - used; room < widths[last] {
		if room < runewidth.StringWidth(t.Headers[last]) {
			room = runewidth.StringWidth(t.Headers[last])
		}
		widths[last] = room
	}

	if err := t.writeRow(w, t.Headers, widths); err != nil {
		return err
	}
	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	if err := t.writeRow(w, rule, widths); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := t.writeRow(w, row, widths); err != nil {
			return err
		}
	}
	return nil
}

func (t Table) writeRow(w io.Writer, row []string, widths []int) error {
	cells := make([]string, len(widths))
	for i, n := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		if runewidth.StringWidth(cell) > n {
			cell = runewidth.Truncate(cell, n, "…")
		}
		if i < len(widths)-1 {
			cell = PadString(cell, n)
		}
		cells[i] = cell
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, columnGap), " "))
	return err
}

// TimelineTable lays a timeline out as one row per step.
func TimelineTable(tl models.Timeline, completed map[string]bool) Table {
	list := views.List(tl.Steps, completed)
	t := Table{Headers: []string{"#", "WHEN", "OFFSET", "TYPE", "", "STEP"}}
	for i, item := range list.Items {
		mark := ""
		if item.Completed {
			mark = "✓"
		}
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%d", i+1),
			item.Time.Format("2006-01-02 15:04 MST"),
			item.Relative,
			string(item.Type),
			mark,
			item.Title + " · " + item.Description,
		})
	}
	return t
}

// WriteTimeline writes a heading and the step table for tl.
func WriteTimeline(w io.Writer, tl models.Timeline, completed map[string]bool, width int) error {
	rs := timeline.Resolve(tl.Framework)
	fw := catalog.FrameworkName(rs)
	if rs == timeline.DefaultFramework {
		fw = "General"
	}
	if _, err := fmt.Fprintf(w, "%s · %s · start %s\n\n",
		catalog.IncidentTypeName(tl.IncidentType), fw, tl.StartTime.Format("2006-01-02 15:04 MST")); err != nil {
		return err
	}
	return TimelineTable(tl, completed).Write(w, width)
}

// RulesTable lists a framework's rule table with offsets.
func RulesTable(rs timeline.RuleSet) Table {
	t := Table{Headers: []string{"ID", "OFFSET", "TYPE", "TITLE"}}
	for _, r := range rs.Rules {
		t.Rows = append(t.Rows, []string{r.ID, r.Offset.String(), string(r.Type), r.Title})
	}
	return t
}

// CatalogTable lists catalog entries.
func CatalogTable(entries []catalog.Entry) Table {
	t := Table{Headers: []string{"ID", "NAME"}}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{e.ID, e.Name})
	}
	return t
}
