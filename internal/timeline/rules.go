package timeline

import (
	"time"

	"chronosec/pkg/models"
)

// Rule set names. DefaultFramework is used for empty or unknown frameworks.
const (
	FrameworkNERCCIP = "nerc_cip"
	FrameworkGDPR    = "gdpr"
	FrameworkHIPAA   = "hipaa"
	FrameworkPCIDSS  = "pci_dss"
	FrameworkFERC    = "ferc"
	FrameworkNIST    = "nist"
	FrameworkCCPA    = "ccpa"
	DefaultFramework = "default"
)

// DetectStepID is the id of the step every timeline opens with.
const DetectStepID = "detect"

// Rule is one row of a framework rule table.
type Rule struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Type        models.StepType `json:"type"`
	Offset      Offset          `json:"offset"`
}

// RuleSet is the resolved rule table for a framework.
type RuleSet struct {
	Framework string `json:"framework"`
	Rules     []Rule `json:"rules"`
}

var detectRule = Rule{
	ID:          DetectStepID,
	Title:       "Initial Detection",
	Description: "Incident is first detected by monitoring systems or reported by users",
	Type:        models.StepIdentify,
}

const (
	titleInternalNotify = "Internal Team Notification"
	titleContainment    = "Begin Containment"
	titleInitialDoc     = "Initial Documentation"
	titleRemediation    = "Begin Remediation"
	titleInitialReport  = "Initial Report Submission"
	titleFinalReport    = "Final Report Submission"
	titleFinalDoc       = "Final Documentation"
	descFinalDoc        = "Complete documentation of incident, response actions, and outcomes"
)

var ruleSets = map[string][]Rule{
	FrameworkNERCCIP: {
		{"internal_notify", titleInternalNotify, "Notify internal cybersecurity and management teams", models.StepNotify, hours(1)},
		{"containment", titleContainment, "Initiate containment procedures to limit impact", models.StepContain, hours(2)},
		{"regulator_notify", "E-ISAC Notification", "Notify E-ISAC of reportable cyber security incident", models.StepNotify, hours(3)},
		{"initial_documentation", titleInitialDoc, "Document incident details, actions taken, and initial assessment", models.StepDocument, hours(4)},
		{"remediation", titleRemediation, "Start remediation efforts to restore systems and services", models.StepRemediate, days(1)},
		{"initial_report", titleInitialReport, "Submit initial report to E-ISAC and NERC", models.StepReport, days(5)},
		{"final_report", titleFinalReport, "Submit final report with detailed analysis and lessons learned", models.StepReport, days(90)},
	},
	FrameworkGDPR: {
		{"internal_notify", titleInternalNotify, "Notify DPO and internal security teams", models.StepNotify, hours(1)},
		{"containment", titleContainment, "Initiate containment procedures to limit data exposure", models.StepContain, hours(3)},
		{"initial_documentation", titleInitialDoc, "Document incident details, data affected, and initial assessment", models.StepDocument, hours(6)},
		{"authority_notification", "Supervisory Authority Notification", "Notify relevant data protection authority within 72-hour deadline", models.StepNotify, hours(72)},
		{"data_subject_notification", "Data Subject Notification", "Notify affected individuals without undue delay", models.StepNotify, hours(96)},
		{"remediation", titleRemediation, "Implement measures to address the breach and prevent recurrence", models.StepRemediate, days(5)},
		{"final_documentation", titleFinalDoc, descFinalDoc, models.StepDocument, days(14)},
	},
	FrameworkHIPAA: {
		{"immediate_actions", "Immediate Response Actions", "Isolate affected systems and implement emergency measures to prevent further exposure", models.StepContain, minutes(30)},
		{"internal_notify", titleInternalNotify, "Notify Privacy Officer, Security Officer, and response team", models.StepNotify, hours(1)},
		{"risk_assessment", "Risk Assessment", "Conduct formal risk assessment to determine scope, impact, and whether the incident constitutes a breach under HIPAA", models.StepAssess, hours(4)},
		{"legal_consultation", "Legal Consultation", "Consult with legal counsel regarding breach determination and reporting obligations", models.StepAssess, hours(8)},
		{"containment", "Complete Containment", "Complete containment procedures to limit PHI exposure and prevent further compromise", models.StepContain, hours(12)},
		{"forensic_analysis", "Forensic Analysis", "Conduct forensic investigation to determine attack vectors, compromised data, and extent of breach", models.StepAnalyze, hours(24)},
		{"initial_documentation", titleInitialDoc, "Document incident details, PHI affected, and initial assessment findings", models.StepDocument, hours(36)},
		{"remediation", titleRemediation, "Implement measures to address the breach and mitigate harm", models.StepRemediate, days(2)},
		{"vendor_notification", "Third-Party Vendor Notification", "Notify relevant business associates and third-party vendors that may be affected", models.StepNotify, days(3)},
		{"law_enforcement", "Law Enforcement Notification", "Notify appropriate law enforcement agencies of the security incident", models.StepNotify, days(5)},
		{"individual_notification", "Individual Notification", "Notify affected individuals of the breach (required within 60 days of discovery)", models.StepNotify, days(30)},
		{"hhs_notification", "HHS Notification", "Submit breach report to HHS Office for Civil Rights (required within 60 days for 500+ individuals)", models.StepReport, days(45)},
		{"media_notification", "Media Notification", "Provide notice to prominent media outlets for breaches affecting 500+ individuals in a state or jurisdiction", models.StepNotify, days(45)},
		{"employee_training", "Employee Training", "Conduct targeted security awareness training to prevent similar incidents", models.StepRemediate, days(60)},
		{"post_incident_review", "Post-Incident Review", "Conduct comprehensive review to identify lessons learned and implement security improvements", models.StepReview, days(75)},
		{"annual_report", "Annual Breach Report", "Include in annual report to HHS for breaches affecting fewer than 500 individuals", models.StepReport, days(90)},
	},
	FrameworkPCIDSS: {
		{"internal_notify", titleInternalNotify, "Notify security team and management", models.StepNotify, minutes(30)},
		{"containment", titleContainment, "Initiate containment procedures to limit cardholder data exposure", models.StepContain, hours(2)},
		{"initial_documentation", titleInitialDoc, "Document incident details, cardholder data affected, and initial assessment", models.StepDocument, hours(4)},
		{"payment_brand_notification", "Payment Brand Notification", "Notify relevant payment brands of the incident", models.StepNotify, hours(24)},
		{"remediation", titleRemediation, "Implement measures to address the breach and secure systems", models.StepRemediate, days(1)},
		{"forensic_investigation", "Forensic Investigation", "Engage PFI (PCI Forensic Investigator) for investigation", models.StepDocument, days(3)},
		{"final_report", titleFinalReport, "Submit final incident report to payment brands and card associations", models.StepReport, days(30)},
	},
	FrameworkFERC: {
		{"internal_notify", titleInternalNotify, "Notify security team and management", models.StepNotify, hours(1)},
		{"containment", titleContainment, "Initiate containment procedures to limit impact", models.StepContain, hours(3)},
		{"initial_documentation", titleInitialDoc, "Document incident details, systems affected, and initial assessment", models.StepDocument, hours(6)},
		{"ferc_notification", "FERC Notification", "Notify FERC of the cybersecurity incident", models.StepNotify, hours(24)},
		{"remediation", titleRemediation, "Implement measures to address the incident and restore operations", models.StepRemediate, days(2)},
		{"initial_report", titleInitialReport, "Submit initial incident report to FERC", models.StepReport, days(7)},
		{"final_report", titleFinalReport, "Submit comprehensive incident report with root cause analysis", models.StepReport, days(60)},
	},
	FrameworkNIST: {
		{"internal_notify", titleInternalNotify, "Notify CSIRT and management", models.StepNotify, hours(1)},
		{"containment", titleContainment, "Implement containment strategy to limit impact", models.StepContain, hours(4)},
		{"initial_documentation", titleInitialDoc, "Document incident details following NIST SP 800-61 guidelines", models.StepDocument, hours(8)},
		{"evidence_collection", "Evidence Collection", "Collect and preserve evidence for analysis and potential legal proceedings", models.StepDocument, hours(12)},
		{"remediation", titleRemediation, "Implement eradication and recovery procedures", models.StepRemediate, days(1)},
		{"stakeholder_notification", "Stakeholder Notification", "Notify relevant stakeholders based on communication plan", models.StepNotify, days(2)},
		{"post_incident_analysis", "Post-Incident Analysis", "Conduct lessons learned meeting and document findings", models.StepDocument, days(14)},
	},
	FrameworkCCPA: {
		{"internal_notify", titleInternalNotify, "Notify privacy team and management", models.StepNotify, hours(1)},
		{"containment", titleContainment, "Initiate containment procedures to limit data exposure", models.StepContain, hours(4)},
		{"initial_documentation", titleInitialDoc, "Document incident details, California residents' data affected, and initial assessment", models.StepDocument, hours(8)},
		{"remediation", titleRemediation, "Implement measures to address the breach and secure systems", models.StepRemediate, days(2)},
		{"resident_notification", "California Resident Notification", "Notify affected California residents of the breach", models.StepNotify, days(15)},
		{"ag_notification", "Attorney General Notification", "Notify California Attorney General for breaches affecting 500+ California residents", models.StepNotify, days(15)},
		{"final_documentation", titleFinalDoc, descFinalDoc, models.StepDocument, days(30)},
	},
	DefaultFramework: {
		{"internal_notify", titleInternalNotify, "Notify security team and management", models.StepNotify, hours(1)},
		{"containment", titleContainment, "Initiate containment procedures to limit impact", models.StepContain, hours(4)},
		{"initial_documentation", titleInitialDoc, "Document incident details and initial assessment", models.StepDocument, hours(8)},
		{"remediation", titleRemediation, "Implement measures to address the incident and restore operations", models.StepRemediate, days(1)},
		{"stakeholder_notification", "Stakeholder Notification", "Notify relevant stakeholders of the incident", models.StepNotify, days(2)},
		{"final_report", "Final Report", "Complete incident report with findings and recommendations", models.StepReport, days(14)},
	},
}

// Resolve maps a requested framework to the rule set that serves it.
func Resolve(framework string) string {
	if _, ok := ruleSets[framework]; ok && framework != DefaultFramework {
		return framework
	}
	return DefaultFramework
}

// Rules returns a copy of the rule table selected for framework, detect step first.
func Rules(framework string) RuleSet {
	name := Resolve(framework)
	table := ruleSets[name]
	out := make([]Rule, 0, len(table)+1)
	out = append(out, detectRule)
	out = append(out, table...)
	return RuleSet{Framework: name, Rules: out}
}

func (r Rule) step(start time.Time) models.TimelineStep {
	return models.TimelineStep{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Time:        r.Offset.From(start),
		Type:        r.Type,
	}
}
