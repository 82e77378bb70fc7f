package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chronosec/pkg/models"
)

const complianceSystem = "You are an expert in cybersecurity compliance frameworks. " +
	"Analyze the incident response timeline and provide a detailed compliance assessment."

// FallbackCompliance is the report returned when the model cannot be used.
func FallbackCompliance() models.ComplianceReport {
	return models.ComplianceReport{
		Items: []models.ComplianceItem{
			{Requirement: "Incident documentation", Status: models.Compliant, Details: "All required documentation is present in the timeline", Score: 100},
			{Requirement: "Notification timeframes", Status: models.Partial, Details: "Some notifications may not meet the required timeframes", Score: 70},
			{Requirement: "Evidence preservation", Status: models.NonCompliant, Details: "No evidence preservation steps documented", Score: 30},
		},
		OverallScore: 67,
		Fallback:     true,
	}
}

func compliancePrompt(steps []models.TimelineStep, framework string) string {
	fw := strings.ToUpper(framework)
	return fmt.Sprintf(`Analyze this incident response timeline for compliance with %[1]s requirements:

Timeline: %[2]s

For each key requirement of %[1]s, determine if the timeline is:
- "compliant" (fully meets requirements)
- "partial" (partially meets requirements)
- "non-compliant" (fails to meet requirements)

Also provide a compliance score (0-100) for each requirement and an overall score.

Return the analysis in this JSON format:
{
  "items": [
    {
      "requirement": "Requirement name",
      "status": "compliant|partial|non-compliant",
      "details": "Explanation of the compliance status",
      "score": 85
    }
  ],
  "overallScore": 75
}`, fw, encodeJSON(promptSteps(steps)))
}

type complianceReply struct {
	Items []struct {
		Requirement string  `json:"requirement"`
		Status      string  `json:"status"`
		Details     string  `json:"details"`
		Score       float64 `json:"score"`
	} `json:"items"`
	OverallScore *float64 `json:"overallScore"`
}

// CheckCompliance scores the timeline against framework requirements.
func (a *Advisor) CheckCompliance(ctx context.Context, steps []models.TimelineStep, framework string) models.ComplianceReport {
	report, err := a.checkCompliance(ctx, steps, framework)
	record(opCompliance, err)
	if err != nil {
		return FallbackCompliance()
	}
	return report
}

func (a *Advisor) checkCompliance(ctx context.Context, steps []models.TimelineStep, framework string) (models.ComplianceReport, error) {
	text, err := a.ask(ctx, opCompliance, complianceSystem, compliancePrompt(steps, framework))
	if err != nil {
		return models.ComplianceReport{}, err
	}
	var reply complianceReply
	if err := decodeJSON(text, &reply); err != nil {
		return models.ComplianceReport{}, fmt.Errorf("decode compliance report: %w", err)
	}
	if len(reply.Items) == 0 {
		return models.ComplianceReport{}, errors.New("compliance report has no items")
	}

	report := models.ComplianceReport{Items: make([]models.ComplianceItem, 0, len(reply.Items))}
	sum := 0
	for _, it := range reply.Items {
		status, err := parseStatus(it.Status)
		if err != nil {
			return models.ComplianceReport{}, err
		}
		score := clampScore(it.Score)
		sum += score
		report.Items = append(report.Items, models.ComplianceItem{
			Requirement: strings.TrimSpace(it.Requirement),
			Status:      status,
			Details:     strings.TrimSpace(it.Details),
			Score:       score,
		})
	}
	if reply.OverallScore != nil {
		report.OverallScore = clampScore(*reply.OverallScore)
	} else {
		report.OverallScore = sum / len(report.Items)
	}
	return report, nil
}

func parseStatus(s string) (models.ComplianceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compliant":
		return models.Compliant, nil
	case "partial", "partially compliant":
		return models.Partial, nil
	case "non-compliant", "noncompliant", "non_compliant":
		return models.NonCompliant, nil
	default:
		return "", fmt.Errorf("unknown compliance status %q", s)
	}
}

func clampScore(f float64) int {
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	default:
		return int(f + 0.5)
	}
}
