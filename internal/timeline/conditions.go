package timeline

// Condition decides whether a conditional step applies to an incident type.
type Condition func(incidentType string) bool

// IncidentIn returns a condition that holds for any of the listed incident types.
func IncidentIn(types ...string) Condition {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(incidentType string) bool {
		_, ok := set[incidentType]
		return ok
	}
}

type conditionKey struct {
	framework string
	step      string
}

// conditions gates steps on the incident type. Steps without an entry are
// unconditional.
var conditions = map[conditionKey]Condition{
	{framework: FrameworkHIPAA, step: "vendor_notification"}: IncidentIn("phishing", "data_breach"),
	{framework: FrameworkHIPAA, step: "law_enforcement"}:     IncidentIn("ransomware", "data_breach"),
	{framework: FrameworkHIPAA, step: "media_notification"}:  IncidentIn("data_breach", "phishing"),
	{framework: FrameworkCCPA, step: "ag_notification"}:      IncidentIn("data_breach"),
}

// Applies reports whether step stepID of the given rule set fires for incidentType.
func Applies(framework, stepID, incidentType string) bool {
	cond, ok := conditions[conditionKey{framework: framework, step: stepID}]
	if !ok {
		return true
	}
	return cond(incidentType)
}

// Conditional reports whether step stepID of the given rule set is gated on the incident type.
func Conditional(framework, stepID string) bool {
	_, ok := conditions[conditionKey{framework: framework, step: stepID}]
	return ok
}
