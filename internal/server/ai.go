package server

import (
	"net/http"

	"chronosec/internal/timeline"
	"chronosec/pkg/models"
)

type enhanceRequest struct {
	BaseTimeline []models.TimelineStep `json:"baseTimeline"`
	IncidentType string                `json:"incidentType"`
	Framework    string                `json:"framework"`
	StartTime    string                `json:"startTime"`
	// SessionID, when set, receives the enhanced timeline.
	SessionID string `json:"sessionId"`
}

type analyzeRequest struct {
	Timeline     []models.TimelineStep `json:"timeline"`
	IncidentType string                `json:"incidentType"`
	Framework    string                `json:"framework"`
	SessionID    string                `json:"sessionId"`
}

// stepsFor returns the request's steps, falling back to the session's timeline.
func (s *Server) stepsFor(steps []models.TimelineStep, sessionID string) []models.TimelineStep {
	if len(steps) > 0 || sessionID == "" {
		return steps
	}
	if tl, err := s.sessions.Get(sessionID); err == nil {
		return tl.Steps
	}
	return steps
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	start, err := timeline.ParseStart(req.StartTime, s.now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	base := req.BaseTimeline
	if len(base) == 0 {
		base = timeline.Generate(req.IncidentType, start, req.Framework)
	}
	if err := timeline.CheckRange(base); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	result := s.advisor.Enhance(r.Context(), base, req.IncidentType, req.Framework, start)

	if req.SessionID != "" && result.Enhanced {
		tl := timeline.Build(req.IncidentType, start, req.Framework)
		tl.Steps = result.Timeline
		tl.Source = "ai"
		if _, err := s.sessions.Put(r.Context(), req.SessionID, tl); err != nil {
			AddError(r.Context(), err)
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	steps := s.stepsFor(req.Timeline, req.SessionID)
	writeJSON(w, http.StatusOK, map[string][]string{
		"recommendations": s.advisor.Recommend(r.Context(), steps, req.IncidentType, req.Framework),
	})
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	steps := s.stepsFor(req.Timeline, req.SessionID)
	writeJSON(w, http.StatusOK, s.advisor.CheckCompliance(r.Context(), steps, req.Framework))
}
