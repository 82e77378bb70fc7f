package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"chronosec/internal/catalog"
	"chronosec/internal/deadlines"
	"chronosec/internal/logger"
	"chronosec/internal/metrics"
	"chronosec/internal/session"
	"chronosec/internal/timeline"
	"chronosec/internal/views"
	"chronosec/pkg/models"
)

const maxBodyBytes = 1 << 20

// writeJSON encodes payload before any header is sent, so an encoding failure
// still yields a 500 with a JSON body.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := sonic.ConfigDefault.Marshal(payload)
	if err != nil {
		logger.Errorf("Failed to encode %d response: %v", status, err)
		status = http.StatusInternalServerError
		body, _ = sonic.ConfigDefault.Marshal(map[string]string{"error": "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	AddError(r.Context(), err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := sonic.ConfigDefault.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"incidentTypes": catalog.IncidentTypes(),
		"frameworks":    catalog.Frameworks(),
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timeline.Rules(r.URL.Query().Get("framework")))
}

type generateRequest struct {
	IncidentType string `json:"incidentType"`
	Framework    string `json:"framework"`
	StartTime    string `json:"startTime"`
	SessionID    string `json:"sessionId"`
}

type timelineResponse struct {
	SessionID string          `json:"sessionId"`
	Timeline  models.Timeline `json:"timeline"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	start, err := timeline.ParseStart(req.StartTime, s.now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	tl := timeline.Build(req.IncidentType, start, req.Framework)
	if err := timeline.CheckRange(tl.Steps); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	metrics.TimelinesGenerated.WithLabelValues(timeline.Resolve(req.Framework)).Inc()

	stored, err := s.sessions.Put(r.Context(), req.SessionID, tl)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	AddLogField(r.Context(), "session_id", stored.SessionID)
	writeJSON(w, http.StatusOK, timelineResponse{SessionID: stored.SessionID, Timeline: stored})
}

type sessionResponse struct {
	SessionID string          `json:"sessionId"`
	Timeline  models.Timeline `json:"timeline"`
	Completed map[string]bool `json:"completed"`
	Done      int             `json:"done"`
	Total     int             `json:"total"`
	Percent   int             `json:"percent"`
}

// loadSession writes the error response itself and reports whether to continue.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (models.Timeline, map[string]bool, bool) {
	id := chi.URLParam(r, "id")
	tl, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, err)
		return models.Timeline{}, nil, false
	}
	completed, err := s.sessions.Completed(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, r, status, err)
		return models.Timeline{}, nil, false
	}
	return tl, completed, true
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	tl, completed, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	list := views.List(tl.Steps, completed)
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: tl.SessionID,
		Timeline:  tl,
		Completed: completed,
		Done:      list.Completed,
		Total:     list.Total,
		Percent:   list.Percent,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.Delete(id) {
		writeError(w, r, http.StatusNotFound, session.ErrNotFound)
		return
	}
	s.deadlines.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	tl, completed, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	switch chi.URLParam(r, "view") {
	case "list":
		writeJSON(w, http.StatusOK, views.List(tl.Steps, completed))
	case "calendar":
		loc := tl.StartTime.Location()
		month := tl.StartTime
		if m := r.URL.Query().Get("month"); m != "" {
			parsed, err := time.ParseInLocation("2006-01", m, loc)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid month %q", m))
				return
			}
			month = parsed
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"months":   views.Months(tl.Steps, loc),
			"calendar": views.Calendar(tl.Steps, month, loc),
		})
	case "gantt":
		writeJSON(w, http.StatusOK, views.Gantt(tl.Steps))
	case "phases":
		writeJSON(w, http.StatusOK, views.Phases(tl.Steps))
	default:
		writeError(w, r, http.StatusNotFound, fmt.Errorf("unknown view %q", chi.URLParam(r, "view")))
	}
}

func (s *Server) handleComplete(done bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		step := chi.URLParam(r, "stepID")
		if err := s.sessions.SetCompleted(r.Context(), id, step, done); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrStepNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, r, status, err)
			return
		}
		metrics.ProgressUpdates.Inc()

		completed, err := s.sessions.Completed(r.Context(), id)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"sessionId": id,
			"completed": completed,
		})
	}
}

type deadlinesResponse struct {
	SessionID string                 `json:"sessionId"`
	Now       time.Time              `json:"now"`
	Window    string                 `json:"window"`
	Alerts    []models.DeadlineAlert `json:"alerts"`
}

func (s *Server) handleDeadlines(w http.ResponseWriter, r *http.Request) {
	tl, completed, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	window := s.deadlines.Window()
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid window %q", v))
			return
		}
		window = d
	}
	now := s.now()
	alerts := deadlines.Check(tl.Steps, completed, now, window)
	for i := range alerts {
		alerts[i].SessionID = tl.SessionID
	}
	if alerts == nil {
		alerts = []models.DeadlineAlert{}
	}
	writeJSON(w, http.StatusOK, deadlinesResponse{
		SessionID: tl.SessionID,
		Now:       now,
		Window:    window.String(),
		Alerts:    alerts,
	})
}

var errNoHub = errors.New("progress streaming is not enabled")
