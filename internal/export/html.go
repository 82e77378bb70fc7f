package export

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"chronosec/internal/catalog"
	"chronosec/pkg/models"
)

type htmlStep struct {
	models.TimelineStep
	Guidance     StepGuidance
	Citation     string
	Dependencies []string
}

type htmlPhase struct {
	Phase
	Steps []htmlStep
}

type htmlView struct {
	Doc           Document
	IncidentName  string
	FrameworkName string
	StepCount     int
	SpanDays      int
	First         models.TimelineStep
	Last          models.TimelineStep
	Handling      *Handling
	Phases        []htmlPhase
	References    []Reference
}

func newHTMLView(doc Document) htmlView {
	tl := doc.Timeline
	view := htmlView{
		Doc:           doc,
		IncidentName:  catalog.IncidentTypeName(tl.IncidentType),
		FrameworkName: catalog.FrameworkName(tl.Framework),
		StepCount:     len(tl.Steps),
		SpanDays:      spanDays(tl.Steps),
		References:    References(tl.Framework),
	}
	if len(tl.Steps) > 0 {
		view.First = tl.Steps[0]
		view.Last = tl.Steps[len(tl.Steps)-1]
	}
	if doc.Classification != "" {
		h := HandlingInstructions(doc.Classification)
		view.Handling = &h
	}
	for _, group := range GroupByPhase(tl.Steps) {
		hp := htmlPhase{Phase: group.Phase}
		for i, s := range group.Steps {
			hp.Steps = append(hp.Steps, htmlStep{
				TimelineStep: s,
				Guidance:     Guidance(s.Type),
				Citation:     Citation(s.Type, tl.Framework),
				Dependencies: group.Dependencies(s.Type, i),
			})
		}
		view.Phases = append(view.Phases, hp)
	}
	return view
}

var htmlTemplate = template.Must(template.New("html").Funcs(templateFuncs).Funcs(template.FuncMap{
	"lower": strings.ToLower,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Incident Response Timeline - {{.IncidentName}}</title>
<style>
body { font-family: sans-serif; color: #2D3748; margin: 0 auto; max-width: 960px; padding: 24px; }
.info-row { display: flex; gap: 12px; padding: 4px 0; }
.info-label { font-weight: 600; min-width: 140px; }
.classification { text-align: center; font-weight: 700; padding: 6px; border: 2px solid #7F1D1D; }
.callout-box { border-left: 4px solid #3182CE; padding: 8px 12px; margin: 16px 0; }
.callout-box.warning { border-color: #D69E2E; }
.callout-box.danger, .callout-box.restricted { border-color: #C53030; }
.phase-container { page-break-inside: avoid; margin-top: 24px; }
.timeline-item { border: 1px solid #E2E8F0; padding: 12px; margin: 12px 0; }
.timeline-header { display: flex; justify-content: space-between; }
.timeline-type { margin-left: 8px; font-size: 12px; text-transform: uppercase; }
.timeline-reference, .timeline-estimated-time { font-size: 12px; color: #718096; }
table { width: 100%; border-collapse: collapse; font-size: 13px; }
th, td { padding: 8px; border-bottom: 1px solid #E2E8F0; text-align: left; }
.footer { margin-top: 32px; font-size: 12px; color: #718096; }
</style>
</head>
<body>
{{- if .Doc.Classification}}
<div class="classification">{{.Doc.Classification}}</div>
{{- end}}
<div class="header">
<h1>Incident Response Timeline</h1>
<p class="subtitle">Comprehensive incident documentation and compliance reporting</p>
</div>
<div class="content">
<div class="info-section">
<div class="info-row"><div class="info-label">Incident Type</div><div class="info-value">{{.IncidentName}}</div></div>
<div class="info-row"><div class="info-label">Framework</div><div class="info-value">{{.FrameworkName}}</div></div>
<div class="info-row"><div class="info-label">Start Time</div><div class="info-value">{{long .Doc.Timeline.StartTime}}</div></div>
<div class="info-row"><div class="info-label">Generated</div><div class="info-value">{{long .Doc.GeneratedAt}}</div></div>
<div class="info-row document-id"><div class="info-label">Document ID</div><div class="info-value">{{.Doc.DocumentID}}</div></div>
</div>
{{- with .Handling}}
<div class="callout-box {{.Level}}">
<div class="callout-title">{{.Title}}</div>
<div class="callout-content">{{range .Paragraphs}}<p>{{.}}</p>{{end}}</div>
</div>
{{- end}}
<div class="summary-section">
<h3 class="summary-title">Executive Overview</h3>
<div class="summary-content">
<p>This timeline includes {{.StepCount}} steps across {{.SpanDays}} days, following {{.FrameworkName}} requirements for a {{lower .IncidentName}}.</p>
{{- if .StepCount}}
<p>The timeline begins with the initial detection on {{date .First.Time}} and concludes with {{.Last.Title}} on {{date .Last.Time}}.</p>
{{- end}}
</div>
</div>
<div class="callout-box info">
<div class="callout-title">Important Information</div>
<div class="callout-content">This document contains information related to a security incident. Handle according to your organization's information handling procedures.</div>
</div>
<div class="timeline-section">
<h2 class="section-title">Incident Response Timeline</h2>
{{- range .Phases}}
<div class="phase-container">
<h3 class="phase-title">Phase {{.Number}}: {{.Title}}</h3>
<p class="phase-description">{{.Description}}</p>
{{- range .Steps}}
<div class="timeline-item {{.Type}}">
<div class="timeline-header">
<div class="timeline-title-group"><span class="timeline-title">{{.Title}}</span><span class="timeline-type">{{typeName .Type}}</span></div>
<span class="timeline-time">{{short .Time}}</span>
</div>
<div class="timeline-description">{{.Description}}</div>
<div class="timeline-context"><div class="timeline-context-title">Why This Matters:</div><p>{{.Guidance.Context}}</p></div>
<div class="timeline-responsibility"><span class="timeline-responsibility-label">Responsible:</span> <span class="timeline-responsibility-value">{{.Guidance.Role}}</span></div>
{{- if .Dependencies}}
<div class="timeline-dependencies"><div class="timeline-dependencies-title">Dependencies:</div><ul>{{range .Dependencies}}<li>{{.}}</li>{{end}}</ul></div>
{{- end}}
<div class="timeline-checklist"><div class="timeline-checklist-title">Action Checklist:</div><ul>{{range .Guidance.Checklist}}<li>{{.}}</li>{{end}}</ul></div>
<div class="timeline-estimated-time">Estimated time: {{.Guidance.EstimatedTime}}</div>
<div class="timeline-reference">Reference: {{.Citation}}</div>
</div>
{{- end}}
</div>
{{- end}}
</div>
{{- if .Doc.Notes}}
<div class="notes-section">
<h3>Additional Notes</h3>
<p>{{.Doc.Notes}}</p>
</div>
{{- end}}
<div class="references-section">
<h3 class="references-title">References &amp; Resources</h3>
<ol class="references-list">
{{- range .References}}
<li>{{.Citation}} <em>{{.Title}}</em>.{{if .Detail}} {{.Detail}}{{end}} <a href="{{.URL}}" target="_blank" rel="noopener noreferrer">{{.Site}}</a></li>
{{- end}}
</ol>
</div>
{{- if .Doc.Revisions}}
<div class="references-section">
<h3 class="references-title">Document Revision History</h3>
<table>
<thead><tr><th>Version</th><th>Date</th><th>Author</th><th>Description</th></tr></thead>
<tbody>
{{- range .Doc.Revisions}}
<tr><td>{{.Version}}</td><td>{{date .Date}}</td><td>{{.Author}}</td><td>{{.Description}}</td></tr>
{{- end}}
</tbody>
</table>
</div>
{{- end}}
</div>
<div class="footer">
<p class="footer-text">Generated on {{long .Doc.GeneratedAt}} using the Incident Response Timeline Simulator</p>
<div class="document-metadata"><span>Document ID: {{.Doc.DocumentID}}</span> <span>Version: 1.0</span></div>
</div>
</body>
</html>
`))

// WriteHTML renders doc as a standalone HTML page suitable for printing to PDF.
func WriteHTML(w io.Writer, doc Document) error {
	if err := htmlTemplate.Execute(w, newHTMLView(doc)); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
