package export

import (
	"fmt"
	"io"
	"text/template"

	"chronosec/internal/catalog"
)

var markdownTemplate = template.Must(template.New("markdown").Funcs(templateFuncs).Parse(`# Incident Response Timeline

## Document ID: {{.DocumentID}}

## Overview

**Incident Type:** {{.IncidentName}}  
**Framework:** {{.FrameworkName}}  
**Start Time:** {{long .Doc.Timeline.StartTime}}  
**Generated:** {{long .Doc.GeneratedAt}}
{{- if .Doc.Classification}}  
**Classification:** {{.Doc.Classification}}
{{- end}}

## Timeline
{{range .Doc.Timeline.Steps}}
### {{.Title}}
**Time:** {{short .Time}}  
**Type:** {{typeName .Type}}

{{.Description}}
{{end}}
{{- if .Doc.Notes}}
## Additional Notes

{{.Doc.Notes}}
{{end}}
---
*Generated on {{date .Doc.GeneratedAt}} using the Incident Response Timeline Simulator*  
*Document ID: {{.DocumentID}}*
`))

type markdownView struct {
	Doc           Document
	DocumentID    string
	IncidentName  string
	FrameworkName string
}

// WriteMarkdown renders doc as a Markdown document.
func WriteMarkdown(w io.Writer, doc Document) error {
	view := markdownView{
		Doc:           doc,
		DocumentID:    doc.DocumentID,
		IncidentName:  catalog.IncidentTypeName(doc.Timeline.IncidentType),
		FrameworkName: catalog.FrameworkName(doc.Timeline.Framework),
	}
	if err := markdownTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return nil
}
