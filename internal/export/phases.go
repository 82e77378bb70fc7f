package export

import "chronosec/pkg/models"

// Phase groups step types into one section of an exported document.
type Phase struct {
	Number       int               `json:"number"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Types        []models.StepType `json:"types"`
	dependencies func(t models.StepType, index int) []string
}

// PhaseSteps is a phase with the steps that fall into it, in timeline order.
type PhaseSteps struct {
	Phase
	Steps []models.TimelineStep `json:"steps"`
}

var phases = []Phase{
	{
		Number: 1,
		Title:  "Detection & Initial Response",
		Description: "This phase focuses on identifying the incident, gathering initial information, and taking immediate containment actions. " +
			"Quick and accurate detection is critical to minimizing the impact of security incidents.",
		Types: []models.StepType{models.StepIdentify, models.StepAssess, models.StepAnalyze},
		dependencies: func(_ models.StepType, index int) []string {
			if index == 0 {
				return nil
			}
			return []string{"Complete previous steps before proceeding"}
		},
	},
	{
		Number: 2,
		Title:  "Documentation & Notification",
		Description: "This phase focuses on properly documenting the incident and notifying all required stakeholders according to compliance requirements. " +
			"Proper documentation and timely notification are critical for regulatory compliance.",
		Types: []models.StepType{models.StepDocument, models.StepNotify},
		dependencies: func(t models.StepType, _ int) []string {
			deps := []string{"Complete Phase 1 before proceeding with notifications"}
			if t == models.StepNotify {
				deps = append(deps, "Ensure documentation is complete before external notification")
			}
			return deps
		},
	},
	{
		Number: 3,
		Title:  "Containment & Remediation",
		Description: "This phase focuses on containing the incident to prevent further damage and implementing remediation measures to restore normal operations. " +
			"Effective containment and remediation are essential to limiting the impact of the incident.",
		Types: []models.StepType{models.StepContain, models.StepRemediate},
		dependencies: func(t models.StepType, _ int) []string {
			deps := []string{"Complete initial assessment before containment"}
			if t == models.StepRemediate {
				deps = append(deps, "Ensure containment is complete before full remediation")
			}
			return deps
		},
	},
	{
		Number: 4,
		Title:  "Reporting & Review",
		Description: "This phase focuses on formal reporting to authorities and conducting a post-incident review to identify lessons learned. " +
			"Thorough reporting and review help improve future incident response capabilities.",
		Types: []models.StepType{models.StepReport, models.StepReview},
		dependencies: func(t models.StepType, _ int) []string {
			deps := []string{"Complete remediation before final reporting"}
			if t == models.StepReview {
				deps = append(deps, "Ensure all documentation and reports are finalized before review")
			}
			return deps
		},
	},
}

// Phases returns the four document phases.
func Phases() []Phase {
	out := make([]Phase, len(phases))
	copy(out, phases)
	return out
}

// PhaseOf returns the phase a step type belongs to.
func PhaseOf(t models.StepType) (Phase, bool) {
	for _, p := range phases {
		for _, pt := range p.Types {
			if pt == t {
				return p, true
			}
		}
	}
	return Phase{}, false
}

// GroupByPhase splits steps into the four phases, keeping timeline order
// inside each phase. Every phase is returned, including empty ones.
func GroupByPhase(steps []models.TimelineStep) []PhaseSteps {
	out := make([]PhaseSteps, len(phases))
	for i, p := range phases {
		out[i] = PhaseSteps{Phase: p}
	}
	for _, s := range steps {
		p, ok := PhaseOf(s.Type)
		if !ok {
			continue
		}
		out[p.Number-1].Steps = append(out[p.Number-1].Steps, s)
	}
	return out
}

// Dependencies lists the prerequisites printed under a step. index is the
// step's position within its phase.
func (p Phase) Dependencies(t models.StepType, index int) []string {
	if p.dependencies == nil {
		return nil
	}
	return p.dependencies(t, index)
}
