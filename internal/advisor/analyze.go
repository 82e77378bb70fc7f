package advisor

import (
	"context"
	"errors"
	"fmt"

	"chronosec/pkg/models"
)

const analyzeSystem = "You are an expert in cybersecurity incident response and compliance frameworks. " +
	"Provide clear, actionable recommendations based on the incident timeline."

// FallbackRecommendations are returned when the model cannot be used.
var FallbackRecommendations = []string{
	"Ensure all stakeholders are notified within the required timeframe",
	"Document all containment actions taken during the incident",
	"Review your incident response plan for compliance gaps",
}

const maxRecommendations = 5

func analyzePrompt(steps []models.TimelineStep, incidentType, framework string) string {
	return fmt.Sprintf(`Analyze this incident response timeline and provide 3-5 specific recommendations to improve compliance and effectiveness:

Incident Type: %s
Compliance Framework: %s

Timeline: %s

Focus on:
1. Compliance gaps or risks
2. Process improvements
3. Documentation requirements
4. Communication strategies
5. Technical controls

Format as a bulleted list of actionable recommendations.`, incidentType, framework, encodeJSON(promptSteps(steps)))
}

// Recommend returns three to five recommendations for the timeline, or the
// fallback list when the model cannot be used.
func (a *Advisor) Recommend(ctx context.Context, steps []models.TimelineStep, incidentType, framework string) []string {
	recs, err := a.recommend(ctx, steps, incidentType, framework)
	record(opAnalyze, err)
	if err != nil {
		return append([]string(nil), FallbackRecommendations...)
	}
	return recs
}

func (a *Advisor) recommend(ctx context.Context, steps []models.TimelineStep, incidentType, framework string) ([]string, error) {
	text, err := a.ask(ctx, opAnalyze, analyzeSystem, analyzePrompt(steps, incidentType, framework))
	if err != nil {
		return nil, err
	}
	recs := parseBullets(text)
	if len(recs) == 0 {
		return nil, errors.New("completion contains no recommendations")
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs, nil
}
