package models

// ComplianceStatus is the verdict for one requirement of a framework.
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "compliant"
	Partial      ComplianceStatus = "partial"
	NonCompliant ComplianceStatus = "non-compliant"
)

// ComplianceItem is one requirement-level finding.
type ComplianceItem struct {
	Requirement string           `json:"requirement"`
	Status      ComplianceStatus `json:"status"`
	Details     string           `json:"details"`
	Score       int              `json:"score"`
}

// ComplianceReport is the result of a compliance gap analysis.
type ComplianceReport struct {
	Items        []ComplianceItem `json:"items"`
	OverallScore int              `json:"overallScore"`
	Fallback     bool             `json:"fallback,omitempty"`
}

// Enhancement is the result of an AI enhancement pass over a timeline.
type Enhancement struct {
	Timeline        []TimelineStep `json:"timeline"`
	Recommendations []string       `json:"recommendations"`
	Enhanced        bool           `json:"enhanced"`
}
