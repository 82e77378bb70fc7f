package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chronosec/internal/timeline"
	"chronosec/pkg/models"
)

const enhanceSystem = "You are an expert in cybersecurity incident response and compliance frameworks. " +
	"Enhance the provided timeline to ensure it meets all compliance requirements and best practices."

// isoLayout matches the millisecond UTC form models are most reliable with.
const isoLayout = "2006-01-02T15:04:05.000Z"

type promptStep struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Time        string `json:"time"`
	Type        string `json:"type"`
}

func promptSteps(steps []models.TimelineStep) []promptStep {
	out := make([]promptStep, len(steps))
	for i, s := range steps {
		out[i] = promptStep{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Time:        s.Time.UTC().Format(isoLayout),
			Type:        string(s.Type),
		}
	}
	return out
}

func enhancePrompt(base []models.TimelineStep, incidentType, framework string, start time.Time) string {
	return fmt.Sprintf(`I have a basic incident response timeline for a %[1]s incident using the %[2]s compliance framework.
The incident started at %[3]s.

Base timeline: %[4]s

Please enhance this timeline by:
1. Adding any missing critical steps required by %[2]s
2. Improving descriptions to be more specific and actionable
3. Adjusting timing if any steps don't meet compliance requirements
4. Adding 2-3 framework-specific recommendations

Return the enhanced timeline in this JSON format:
{
  "timeline": [
    {
      "id": "string",
      "title": "string",
      "description": "string",
      "time": "ISO date string",
      "type": "identify|notify|contain|document|remediate|report|assess|analyze|review"
    }
  ],
  "recommendations": [
    "string"
  ]
}`, incidentType, framework, start.UTC().Format(isoLayout), encodeJSON(promptSteps(base)))
}

type enhanceReply struct {
	Timeline        []promptStep `json:"timeline"`
	Recommendations []string     `json:"recommendations"`
}

// Enhance asks the model to improve base. On any failure the result is base
// unchanged, no recommendations, and Enhanced false.
func (a *Advisor) Enhance(ctx context.Context, base []models.TimelineStep, incidentType, framework string, start time.Time) models.Enhancement {
	steps, recs, err := a.enhance(ctx, base, incidentType, framework, start)
	record(opEnhance, err)
	if err != nil {
		return models.Enhancement{
			Timeline:        timeline.Sorted(base),
			Recommendations: []string{},
			Enhanced:        false,
		}
	}
	return models.Enhancement{Timeline: steps, Recommendations: recs, Enhanced: true}
}

func (a *Advisor) enhance(ctx context.Context, base []models.TimelineStep, incidentType, framework string, start time.Time) ([]models.TimelineStep, []string, error) {
	text, err := a.ask(ctx, opEnhance, enhanceSystem, enhancePrompt(base, incidentType, framework, start))
	if err != nil {
		return nil, nil, err
	}
	var reply enhanceReply
	if err := decodeJSON(text, &reply); err != nil {
		return nil, nil, fmt.Errorf("decode enhanced timeline: %w", err)
	}
	steps, err := convertSteps(reply.Timeline, start.Location())
	if err != nil {
		return nil, nil, err
	}
	// Prompt times carry milliseconds only.
	for i := range steps {
		if d := start.Sub(steps[i].Time); d > 0 && d < time.Second {
			steps[i].Time = start
		}
	}
	steps = timeline.EnsureDetect(steps, start)
	if err := timeline.Validate(steps, start); err != nil {
		return nil, nil, fmt.Errorf("invalid enhanced timeline: %w", err)
	}

	recs := make([]string, 0, len(reply.Recommendations))
	for _, r := range reply.Recommendations {
		if r = strings.TrimSpace(r); r != "" {
			recs = append(recs, r)
		}
	}
	return steps, recs, nil
}

func convertSteps(in []promptStep, loc *time.Location) ([]models.TimelineStep, error) {
	if len(in) == 0 {
		return nil, errors.New("enhanced timeline is empty")
	}
	out := make([]models.TimelineStep, 0, len(in))
	for i, s := range in {
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s.Time))
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): bad time %q", i, s.ID, s.Time)
		}
		typ := models.StepType(strings.ToLower(strings.TrimSpace(s.Type)))
		if !typ.Valid() {
			return nil, fmt.Errorf("step %d (%s): unknown type %q", i, s.ID, s.Type)
		}
		out = append(out, models.TimelineStep{
			ID:          strings.TrimSpace(s.ID),
			Title:       strings.TrimSpace(s.Title),
			Description: strings.TrimSpace(s.Description),
			Time:        t.In(loc),
			Type:        typ,
		})
	}
	return out, nil
}
