package export

import (
	"strings"

	"chronosec/pkg/models"
)

var citations = map[string]map[models.StepType]string{
	"hipaa": {
		models.StepIdentify:  "HIPAA Security Rule, 45 CFR § 164.308(a)(6)(ii)",
		models.StepNotify:    "HIPAA Breach Notification Rule, 45 CFR §§ 164.400-414",
		models.StepContain:   "HHS Guidance on HIPAA Security Rule Contingency Planning",
		models.StepDocument:  "HIPAA Security Rule, 45 CFR § 164.308(a)(6)(ii)",
		models.StepRemediate: "HIPAA Security Rule, 45 CFR § 164.308(a)(7)(ii)",
		models.StepReport:    "HIPAA Breach Notification Rule, 45 CFR § 164.404",
		models.StepAssess:    "HIPAA Security Rule, 45 CFR § 164.308(a)(1)(ii)(A)",
		models.StepAnalyze:   "HIPAA Security Rule, 45 CFR § 164.308(a)(6)(ii)",
		models.StepReview:    "HIPAA Security Rule, 45 CFR § 164.308(a)(8)",
	},
	"gdpr": {
		models.StepIdentify:  "GDPR Article 33(1)",
		models.StepNotify:    "GDPR Articles 33-34",
		models.StepContain:   "GDPR Article 32",
		models.StepDocument:  "GDPR Article 33(5)",
		models.StepRemediate: "GDPR Article 32",
		models.StepReport:    "GDPR Article 33(1)",
		models.StepAssess:    "GDPR Article 35",
		models.StepAnalyze:   "GDPR Article 33(3)(d)",
		models.StepReview:    "GDPR Article 32(1)(d)",
	},
	"nist": {
		models.StepIdentify:  "NIST SP 800-61r2, Section 3.2.1",
		models.StepNotify:    "NIST SP 800-61r2, Section 3.2.7",
		models.StepContain:   "NIST SP 800-61r2, Section 3.3.1",
		models.StepDocument:  "NIST SP 800-61r2, Section 3.3.2",
		models.StepRemediate: "NIST SP 800-61r2, Section 3.4",
		models.StepReport:    "NIST SP 800-61r2, Section 3.4.3",
		models.StepAssess:    "NIST SP 800-61r2, Section 3.2.6",
		models.StepAnalyze:   "NIST SP 800-61r2, Section 3.2.4",
		models.StepReview:    "NIST SP 800-61r2, Section 3.4.1",
	},
	"pci_dss": {
		models.StepIdentify:  "PCI DSS v4.0, Requirement 12.10.1",
		models.StepNotify:    "PCI DSS v4.0, Requirement 12.10.4",
		models.StepContain:   "PCI DSS v4.0, Requirement 12.10.5",
		models.StepDocument:  "PCI DSS v4.0, Requirement 12.10.6",
		models.StepRemediate: "PCI DSS v4.0, Requirement 12.10.7",
		models.StepReport:    "PCI DSS v4.0, Requirement 12.10.4",
		models.StepAssess:    "PCI DSS v4.0, Requirement 12.10.3",
		models.StepAnalyze:   "PCI DSS v4.0, Requirement 12.10.6",
		models.StepReview:    "PCI DSS v4.0, Requirement 12.10.8",
	},
}

var defaultCitations = map[models.StepType]string{
	models.StepIdentify:  "ISO/IEC 27035-1:2016, Section 7.2",
	models.StepNotify:    "ISO/IEC 27035-1:2016, Section 7.4",
	models.StepContain:   "SANS Incident Handler's Handbook, Section 4.3",
	models.StepDocument:  "ISO/IEC 27035-2:2016, Section 7.3",
	models.StepRemediate: "ISO/IEC 27035-2:2016, Section 7.5",
	models.StepReport:    "FIRST CSIRT Framework v2.1, Section 3.4",
	models.StepAssess:    "ISO/IEC 27035-1:2016, Section 7.2",
	models.StepAnalyze:   "SANS Incident Handler's Handbook, Section 4.4",
	models.StepReview:    "ISO/IEC 27035-2:2016, Section 7.6",
}

// Citation returns the regulatory reference printed under a step.
func Citation(t models.StepType, framework string) string {
	if c, ok := citations[framework][t]; ok {
		return c
	}
	if c, ok := defaultCitations[t]; ok {
		return c
	}
	return "Industry best practice"
}

// StepGuidance is the per-type advice attached to every exported step.
type StepGuidance struct {
	Context       string   `json:"context"`
	Role          string   `json:"role"`
	Checklist     []string `json:"checklist"`
	EstimatedTime string   `json:"estimated_time"`
}

var guidance = map[models.StepType]StepGuidance{
	models.StepIdentify: {
		Context:       "Identifying the scope and nature of the incident is crucial for effective response.",
		Role:          "Security Analyst",
		Checklist:     []string{"Verify the incident", "Determine the scope", "Document initial findings"},
		EstimatedTime: "1-2 hours",
	},
	models.StepNotify: {
		Context:       "Timely notification ensures all stakeholders are aware and can take appropriate action.",
		Role:          "Incident Manager",
		Checklist:     []string{"Identify stakeholders", "Prepare notification message", "Send notifications"},
		EstimatedTime: "30 minutes",
	},
	models.StepContain: {
		Context:       "Containment prevents further damage and limits the impact of the incident.",
		Role:          "Security Engineer",
		Checklist:     []string{"Isolate affected systems", "Disable compromised accounts", "Implement temporary security measures"},
		EstimatedTime: "2-4 hours",
	},
	models.StepDocument: {
		Context:       "Proper documentation provides a record of the incident and supports compliance efforts.",
		Role:          "Compliance Officer",
		Checklist:     []string{"Record all actions taken", "Collect evidence", "Maintain a timeline of events"},
		EstimatedTime: "1-2 hours",
	},
	models.StepRemediate: {
		Context:       "Remediation restores systems to normal operation and prevents recurrence.",
		Role:          "System Administrator",
		Checklist:     []string{"Apply patches", "Restore from backups", "Rebuild compromised systems"},
		EstimatedTime: "4-8 hours",
	},
	models.StepReport: {
		Context:       "Reporting to authorities ensures compliance and helps prevent future incidents.",
		Role:          "Legal Counsel",
		Checklist:     []string{"Prepare a formal report", "Submit to relevant authorities", "Document lessons learned"},
		EstimatedTime: "2-4 hours",
	},
	models.StepAssess: {
		Context:       "Assessing the impact helps prioritize response efforts.",
		Role:          "Security Analyst",
		Checklist:     []string{"Determine the impact on business operations", "Identify affected assets", "Prioritize response efforts"},
		EstimatedTime: "1-2 hours",
	},
	models.StepAnalyze: {
		Context:       "Analyzing the root cause helps prevent similar incidents in the future.",
		Role:          "Forensic Investigator",
		Checklist:     []string{"Identify the root cause", "Determine the attack vector", "Analyze malware samples"},
		EstimatedTime: "4-8 hours",
	},
	models.StepReview: {
		Context:       "Reviewing the incident response process helps identify areas for improvement.",
		Role:          "Incident Response Team",
		Checklist:     []string{"Evaluate the effectiveness of the response", "Identify areas for improvement", "Update incident response plan"},
		EstimatedTime: "2-4 hours",
	},
}

var fallbackGuidance = StepGuidance{
	Context:       "Understanding the context is essential for effective incident response.",
	Role:          "Incident Response Team",
	Checklist:     []string{"Review the incident", "Identify lessons learned", "Update procedures"},
	EstimatedTime: "Varies",
}

// Guidance returns the advice for a step type.
func Guidance(t models.StepType) StepGuidance {
	g, ok := guidance[t]
	if !ok {
		g = fallbackGuidance
	}
	g.Checklist = append([]string(nil), g.Checklist...)
	return g
}

// Reference is one entry of a document's bibliography.
type Reference struct {
	Citation string `json:"citation"`
	Title    string `json:"title"`
	Detail   string `json:"detail,omitempty"`
	Site     string `json:"site"`
	URL      string `json:"url"`
}

var frameworkReferences = map[string][]Reference{
	"hipaa": {
		{"U.S. Department of Health & Human Services. (2013).", "HIPAA Breach Notification Rule, 45 CFR §§ 164.400-414", "", "HHS.gov", "https://www.hhs.gov/hipaa/for-professionals/breach-notification/index.html"},
		{"Office for Civil Rights. (2023).", "Guidance on HIPAA & Contingency Planning", "", "HHS.gov", "https://www.hhs.gov/hipaa/for-professionals/security/guidance/contingency-planning/index.html"},
		{"U.S. Department of Health & Human Services. (2013).", "HIPAA Security Rule, 45 CFR § 164.308", "", "HHS.gov", "https://www.hhs.gov/hipaa/for-professionals/security/laws-regulations/index.html"},
	},
	"gdpr": {
		{"European Data Protection Board. (2022).", "Guidelines on Personal Data Breach Notification under GDPR", "", "EDPB.europa.eu", "https://edpb.europa.eu/our-work-tools/our-documents/guidelines/guidelines-012021-examples-regarding-personal-data-breach_en"},
		{"Information Commissioner's Office. (2023).", "Guide to the UK General Data Protection Regulation", "", "ICO.org.uk", "https://ico.org.uk/for-organisations/uk-gdpr-guidance-and-resources/"},
		{"European Union. (2016).", "General Data Protection Regulation", "Articles 32-34.", "GDPR-info.eu", "https://gdpr-info.eu/"},
	},
	"pci_dss": {
		{"PCI Security Standards Council. (2022).", "Payment Card Industry Data Security Standard v4.0", "Section 12.10.", "PCISecurityStandards.org", "https://www.pcisecuritystandards.org/document_library/"},
		{"PCI Security Standards Council. (2018).", "Information Supplement: Best Practices for Implementing a Security Incident Response Program", "", "PCISecurityStandards.org", "https://www.pcisecuritystandards.org/document_library/?category=best_practices"},
		{"PCI Security Standards Council. (2022).", "PCI DSS v4.0 Template for Report on Compliance", "", "PCISecurityStandards.org", "https://www.pcisecuritystandards.org/document_library/?category=reporting_templates"},
	},
	"nist": {
		{"Cichonski, P., et al. (2012).", "Computer Security Incident Handling Guide", "NIST Special Publication 800-61 Revision 2.", "NIST.gov", "https://csrc.nist.gov/publications/detail/sp/800-61/rev-2/final"},
		{"National Institute of Standards and Technology. (2023).", "Framework for Improving Critical Infrastructure Cybersecurity", "Version 1.1.", "NIST.gov", "https://www.nist.gov/cyberframework"},
		{"Souppaya, M., & Scarfone, K. (2013).", "Guide to Enterprise Patch Management Technologies", "NIST Special Publication 800-40 Revision 3.", "NIST.gov", "https://csrc.nist.gov/publications/detail/sp/800-40/rev-3/final"},
	},
}

var defaultReferences = []Reference{
	{"International Organization for Standardization. (2016).", "ISO/IEC 27035:2016 Information Security Incident Management", "", "ISO.org", "https://www.iso.org/standard/60803.html"},
	{"FIRST.org. (2019).", "Computer Security Incident Response Team (CSIRT) Services Framework", "Version 2.1.", "FIRST.org", "https://www.first.org/standards/frameworks/csirts/"},
	{"SANS Institute. (2020).", "Incident Handler's Handbook", "", "SANS.org", "https://www.sans.org/white-papers/33901/"},
}

// References returns the bibliography for a framework.
func References(framework string) []Reference {
	refs, ok := frameworkReferences[framework]
	if !ok {
		refs = defaultReferences
	}
	return append([]Reference(nil), refs...)
}

// Handling is the classification banner text of an exported document.
type Handling struct {
	Level      string   `json:"level"`
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
}

// HandlingInstructions returns the banner for a classification marking.
// Markings are case-insensitive; unknown markings get generic instructions.
func HandlingInstructions(classification string) Handling {
	switch strings.ToUpper(strings.TrimSpace(classification)) {
	case "PUBLIC":
		return Handling{Level: "info", Title: "Handling Instructions - PUBLIC", Paragraphs: []string{
			"This document is classified as PUBLIC and may be freely distributed both internally and externally.",
			"No specific handling precautions are required.",
		}}
	case "INTERNAL", "INTERNAL USE ONLY":
		return Handling{Level: "warning", Title: "Handling Instructions - INTERNAL USE ONLY", Paragraphs: []string{
			"This document is for internal use only and should not be shared outside the organization without approval.",
			"Store electronic copies only on approved internal systems. Do not store on personal devices.",
		}}
	case "CONFIDENTIAL":
		return Handling{Level: "danger", Title: "Handling Instructions - CONFIDENTIAL", Paragraphs: []string{
			"This document contains sensitive information. Access should be limited to authorized personnel only.",
			"Do not share electronically without encryption. Physical copies must be stored in locked containers when not in use.",
			"Disposal must be via secure shredding or deletion.",
		}}
	case "RESTRICTED":
		return Handling{Level: "restricted", Title: "Handling Instructions - RESTRICTED", Paragraphs: []string{
			"This document contains highly sensitive information. Access is restricted to named individuals only.",
			"Do not print unless absolutely necessary. Electronic copies must be encrypted at rest and in transit.",
			"Do not forward or share without explicit authorization. All access must be logged.",
			"Disposal must be witnessed and documented.",
		}}
	default:
		return Handling{Level: "info", Title: "Handling Instructions", Paragraphs: []string{
			"Handle according to your organization's information security policies.",
		}}
	}
}
