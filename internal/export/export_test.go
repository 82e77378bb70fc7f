package export

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronosec/internal/timeline"
	"chronosec/pkg/models"
)

var (
	start     = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	generated = time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC)
)

func gdprDoc(opts Options) Document {
	tl := timeline.Build("data_breach", start, "gdpr")
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = generated
	}
	return NewDocument(tl, opts)
}

func TestNewDocumentID(t *testing.T) {
	id := NewDocumentID(start)
	assert.Regexp(t, regexp.MustCompile(`^DOC-[0-9A-Z]+-[0-9A-Z]{6}$`), id)
	assert.True(t, strings.HasPrefix(id, "DOC-LQUOWIO0-"), id)
	assert.NotEqual(t, id, NewDocumentID(start))
}

func TestNewDocumentPrefersCustomID(t *testing.T) {
	doc := gdprDoc(Options{DocumentID: "DOC-CUSTOM-1"})
	assert.Equal(t, "DOC-CUSTOM-1", doc.DocumentID)
	assert.Equal(t, "DOC-CUSTOM-1", doc.Timeline.DocumentID)

	tl := timeline.Build("data_breach", start, "gdpr")
	tl.DocumentID = "DOC-FROM-TIMELINE"
	assert.Equal(t, "DOC-FROM-TIMELINE", NewDocument(tl, Options{}).DocumentID)
}

func TestNewDocumentRevisionHistory(t *testing.T) {
	assert.Empty(t, gdprDoc(Options{}).Revisions)

	doc := gdprDoc(Options{RevisionHistory: true})
	require.Len(t, doc.Revisions, 1)
	assert.Equal(t, "1.0", doc.Revisions[0].Version)
	assert.Equal(t, "ChronoSec System", doc.Revisions[0].Author)
	assert.Equal(t, "Initial document creation", doc.Revisions[0].Description)
}

func TestFilename(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "data-breach-timeline-2024-03-05.html", Filename("data_breach", FormatHTML, day))
	assert.Equal(t, "physical-security-breach-timeline-2024-03-05.md", Filename("physical_breach", FormatMarkdown, day))
	assert.Equal(t, "custom_thing-timeline-2024-03-05.html", Filename("custom_thing", FormatPDF, day))
	assert.Equal(t, "incident-timeline-2024-03-05.html", Filename("", FormatHTML, day))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("MD")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	f, err = ParseFormat("pdf")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestMarkdown(t *testing.T) {
	doc := gdprDoc(Options{DocumentID: "DOC-TEST-ABCDEF", Notes: "Escalated to legal."})
	res, err := Render(doc, FormatMarkdown)
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, "data-breach-timeline-2024-01-02.md", res.Filename)
	assert.Contains(t, res.ContentType, "text/markdown")

	md := string(res.Body)
	assert.True(t, strings.HasPrefix(md, "# Incident Response Timeline\n"))
	assert.Contains(t, md, "## Document ID: DOC-TEST-ABCDEF")
	assert.Contains(t, md, "**Incident Type:** Data Breach")
	assert.Contains(t, md, "**Framework:** GDPR")
	assert.Contains(t, md, "**Start Time:** January 1, 2024 9:00 AM")
	assert.Contains(t, md, "### Supervisory Authority Notification\n**Time:** Jan 4, 2024 9:00 AM  \n**Type:** Notify")
	assert.Contains(t, md, "## Additional Notes\n\nEscalated to legal.")
	assert.Contains(t, md, "*Generated on January 2, 2024 using the Incident Response Timeline Simulator*")
	assert.Equal(t, 8, strings.Count(md, "\n### "))
	assert.Less(t, strings.Index(md, "Initial Detection"), strings.Index(md, "Final Documentation"))
}

func TestHTML(t *testing.T) {
	doc := gdprDoc(Options{DocumentID: "DOC-TEST-ABCDEF", Classification: "confidential", RevisionHistory: true})
	res, err := Render(doc, FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, res.ContentType, "text/html")

	page := string(res.Body)
	assert.Contains(t, page, "<!DOCTYPE html>")
	assert.Contains(t, page, "Handling Instructions - CONFIDENTIAL")
	assert.Contains(t, page, "This timeline includes 8 steps across 14 days")
	assert.Contains(t, page, "concludes with Final Documentation on January 15, 2024")
	assert.Contains(t, page, "Phase 1: Detection &amp; Initial Response")
	assert.Contains(t, page, "Phase 4: Reporting &amp; Review")
	assert.Contains(t, page, "Reference: GDPR Articles 33-34")
	assert.Contains(t, page, "Responsible:</span> <span class=\"timeline-responsibility-value\">Incident Manager")
	assert.Contains(t, page, "Ensure documentation is complete before external notification")
	assert.Contains(t, page, "Document Revision History")
	assert.Contains(t, page, "gdpr-info.eu")
	assert.Contains(t, page, "DOC-TEST-ABCDEF")
}

func TestHTMLEscapesStepText(t *testing.T) {
	tl := timeline.Build("malware", start, "")
	tl.Steps[1].Description = "<script>alert(1)</script>"
	res, err := Render(NewDocument(tl, Options{GeneratedAt: generated}), FormatHTML)
	require.NoError(t, err)
	assert.NotContains(t, string(res.Body), "<script>alert(1)</script>")
}

func TestPDFFallsBackToHTML(t *testing.T) {
	res, err := Render(gdprDoc(Options{}), FormatPDF)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, FormatHTML, res.Format)
	assert.True(t, strings.HasSuffix(res.Filename, ".html"))
	assert.Contains(t, string(res.Body), "<!DOCTYPE html>")
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	_, err := Render(gdprDoc(Options{}), Format("docx"))
	assert.Error(t, err)
}

func TestGroupByPhase(t *testing.T) {
	steps := timeline.Generate("data_breach", start, "hipaa")
	groups := GroupByPhase(steps)
	require.Len(t, groups, 4)

	total := 0
	for _, g := range groups {
		total += len(g.Steps)
		for _, s := range g.Steps {
			p, ok := PhaseOf(s.Type)
			require.True(t, ok)
			assert.Equal(t, g.Number, p.Number)
		}
	}
	assert.Equal(t, len(steps), total)
	assert.Equal(t, "detect", groups[0].Steps[0].ID)
	assert.Empty(t, groups[0].Dependencies(models.StepIdentify, 0))
	assert.Equal(t, []string{"Complete previous steps before proceeding"}, groups[0].Dependencies(models.StepAssess, 1))
	assert.Len(t, groups[2].Dependencies(models.StepRemediate, 0), 2)
}

func TestCitationFallbacks(t *testing.T) {
	assert.Equal(t, "HIPAA Breach Notification Rule, 45 CFR § 164.404", Citation(models.StepReport, "hipaa"))
	assert.Equal(t, "ISO/IEC 27035-1:2016, Section 7.4", Citation(models.StepNotify, "ccpa"))
	assert.Equal(t, "Industry best practice", Citation("escalate", "gdpr"))
}

func TestGuidanceIsCopied(t *testing.T) {
	g := Guidance(models.StepContain)
	assert.Equal(t, "Security Engineer", g.Role)
	g.Checklist[0] = "changed"
	assert.Equal(t, "Isolate affected systems", Guidance(models.StepContain).Checklist[0])
	assert.Equal(t, "Varies", Guidance("unknown").EstimatedTime)
}

func TestHandlingInstructions(t *testing.T) {
	assert.Equal(t, "Handling Instructions - INTERNAL USE ONLY", HandlingInstructions("internal").Title)
	assert.Equal(t, "Handling Instructions - INTERNAL USE ONLY", HandlingInstructions("Internal Use Only").Title)
	assert.Len(t, HandlingInstructions("RESTRICTED").Paragraphs, 4)
	assert.Equal(t, "Handling Instructions", HandlingInstructions("SECRET").Title)
}

func TestReferences(t *testing.T) {
	assert.Len(t, References("nist"), 3)
	assert.Equal(t, "ISO.org", References("ferc")[0].Site)
}
