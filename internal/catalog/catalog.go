// Package catalog lists the incident types and regulatory frameworks the
// generator knows about, with their display names.
package catalog

// Entry is an identifier with its display name.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var incidentTypes = []Entry{
	{ID: "ransomware", Name: "Ransomware Attack"},
	{ID: "phishing", Name: "Phishing Campaign"},
	{ID: "data_breach", Name: "Data Breach"},
	{ID: "ddos", Name: "DDoS Attack"},
	{ID: "malware", Name: "Malware Infection"},
	{ID: "insider_threat", Name: "Insider Threat"},
	{ID: "physical_breach", Name: "Physical Security Breach"},
}

var frameworks = []Entry{
	{ID: "nerc_cip", Name: "NERC CIP-008"},
	{ID: "gdpr", Name: "GDPR"},
	{ID: "hipaa", Name: "HIPAA"},
	{ID: "pci_dss", Name: "PCI DSS"},
	{ID: "ferc", Name: "FERC"},
	{ID: "nist", Name: "NIST Cybersecurity Framework"},
	{ID: "ccpa", Name: "CCPA"},
}

// IncidentTypes returns the known incident types in display order.
func IncidentTypes() []Entry {
	out := make([]Entry, len(incidentTypes))
	copy(out, incidentTypes)
	return out
}

// Frameworks returns the known frameworks in display order.
func Frameworks() []Entry {
	out := make([]Entry, len(frameworks))
	copy(out, frameworks)
	return out
}

// IncidentTypeName returns the display name of an incident type, or the id itself.
func IncidentTypeName(id string) string {
	return lookup(incidentTypes, id)
}

// FrameworkName returns the display name of a framework, or the id itself.
func FrameworkName(id string) string {
	return lookup(frameworks, id)
}

// IsIncidentType reports whether id is a known incident type.
func IsIncidentType(id string) bool {
	return contains(incidentTypes, id)
}

// IsFramework reports whether id is a known framework.
func IsFramework(id string) bool {
	return contains(frameworks, id)
}

func lookup(entries []Entry, id string) string {
	for _, e := range entries {
		if e.ID == id {
			return e.Name
		}
	}
	return id
}

func contains(entries []Entry, id string) bool {
	for _, e := range entries {
		if e.ID == id {
			return true
		}
	}
	return false
}
