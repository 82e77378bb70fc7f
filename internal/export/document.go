// Package export renders timelines as Markdown and standalone HTML documents.
package export

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"chronosec/internal/catalog"
	"chronosec/pkg/models"
)

// Format is an export document format.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// ParseFormat accepts a format name or common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Options tunes a rendered document.
type Options struct {
	DocumentID      string
	Classification  string
	RevisionHistory bool
	Notes           string
	GeneratedAt     time.Time
}

// Revision is one row of the document revision table.
type Revision struct {
	Version     string
	Date        time.Time
	Author      string
	Description string
}

// Document is a timeline with everything needed to render it.
type Document struct {
	Timeline       models.Timeline
	DocumentID     string
	Classification string
	Notes          string
	GeneratedAt    time.Time
	Revisions      []Revision
}

// NewDocument prepares tl for rendering. The timeline's own document id is
// used when opts does not carry one; a fresh id is minted otherwise.
func NewDocument(tl models.Timeline, opts Options) Document {
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	generated = generated.In(tl.StartTime.Location())
	id := opts.DocumentID
	if id == "" {
		id = tl.DocumentID
	}
	if id == "" {
		id = NewDocumentID(generated)
	}
	doc := Document{
		Timeline:       tl,
		DocumentID:     id,
		Classification: strings.TrimSpace(opts.Classification),
		Notes:          strings.TrimSpace(opts.Notes),
		GeneratedAt:    generated,
	}
	doc.Timeline.DocumentID = id
	if opts.RevisionHistory {
		doc.Revisions = []Revision{{
			Version:     "1.0",
			Date:        generated,
			Author:      "ChronoSec System",
			Description: "Initial document creation",
		}}
	}
	return doc
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewDocumentID returns DOC-<unix millis in base 36>-<6 random base 36 chars>.
func NewDocumentID(now time.Time) string {
	var suffix [6]byte
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}
	return "DOC-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)) + "-" + string(suffix[:])
}

// Filename returns <incident-name>-timeline-YYYY-MM-DD.<ext>.
func Filename(incidentType string, format Format, date time.Time) string {
	name := strings.ToLower(strings.Join(strings.Fields(catalog.IncidentTypeName(incidentType)), "-"))
	if name == "" {
		name = "incident"
	}
	return fmt.Sprintf("%s-timeline-%s.%s", name, date.Format("2006-01-02"), extension(format))
}

func extension(f Format) string {
	if f == FormatMarkdown {
		return "md"
	}
	return "html"
}

// Result is a rendered document ready to be served or written to disk.
type Result struct {
	Format      Format
	Body        []byte
	ContentType string
	Filename    string
	// Fallback is set when the requested format could not be produced and
	// HTML was rendered instead.
	Fallback bool
}

// Render produces doc in the requested format. PDF has no converter here;
// it is served as HTML suitable for printing, with Fallback set.
func Render(doc Document, format Format) (Result, error) {
	var buf bytes.Buffer
	res := Result{Format: format}
	switch format {
	case FormatMarkdown:
		if err := WriteMarkdown(&buf, doc); err != nil {
			return Result{}, err
		}
		res.ContentType = "text/markdown; charset=utf-8"
	case FormatHTML, FormatPDF:
		if err := WriteHTML(&buf, doc); err != nil {
			return Result{}, err
		}
		res.ContentType = "text/html; charset=utf-8"
		if format == FormatPDF {
			res.Format = FormatHTML
			res.Fallback = true
		}
	default:
		return Result{}, fmt.Errorf("unsupported export format %q", format)
	}
	res.Body = buf.Bytes()
	res.Filename = Filename(doc.Timeline.IncidentType, res.Format, doc.GeneratedAt)
	return res, nil
}

func typeName(t models.StepType) string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var templateFuncs = map[string]any{
	"long":     func(t time.Time) string { return t.Format(longLayout) },
	"short":    func(t time.Time) string { return t.Format(shortLayout) },
	"date":     func(t time.Time) string { return t.Format(dateLayout) },
	"typeName": typeName,
}

const (
	longLayout  = "January 2, 2006 3:04 PM"
	shortLayout = "Jan 2, 2006 3:04 PM"
	dateLayout  = "January 2, 2006"
)

// spanDays is the whole number of days, rounded up, between the first and
// last step.
func spanDays(steps []models.TimelineStep) int {
	if len(steps) < 2 {
		return 0
	}
	d := steps[len(steps)-1].Time.Sub(steps[0].Time)
	day := 24 * time.Hour
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	return n
}
