package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chronosec/internal/export"
	"chronosec/internal/metrics"
	"chronosec/internal/timeline"
	"chronosec/pkg/models"
)

type exportRequest struct {
	SessionID string           `json:"sessionId"`
	Timeline  *models.Timeline `json:"timeline"`

	// Used to generate a timeline when neither a session nor a timeline is given.
	IncidentType string `json:"incidentType"`
	Framework    string `json:"framework"`
	StartTime    string `json:"startTime"`

	DocumentID      string `json:"documentId"`
	Classification  string `json:"classification"`
	RevisionHistory bool   `json:"revisionHistory"`
	Notes           string `json:"notes"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var req exportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var tl models.Timeline
	switch {
	case req.SessionID != "":
		tl, err = s.sessions.Get(req.SessionID)
		if err != nil {
			writeError(w, r, http.StatusNotFound, err)
			return
		}
	case req.Timeline != nil:
		tl = *req.Timeline
		if len(tl.Steps) == 0 {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("timeline has no steps"))
			return
		}
		if tl.StartTime.IsZero() {
			tl.StartTime = tl.Steps[0].Time
		}
	default:
		start, err := timeline.ParseStart(req.StartTime, s.now())
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
		tl = timeline.Build(req.IncidentType, start, req.Framework)
	}
	if err := timeline.CheckRange(tl.Steps); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	doc := export.NewDocument(tl, export.Options{
		DocumentID:      req.DocumentID,
		Classification:  req.Classification,
		RevisionHistory: req.RevisionHistory,
		Notes:           req.Notes,
		GeneratedAt:     s.now(),
	})
	res, err := export.Render(doc, format)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	metrics.Exports.WithLabelValues(string(res.Format)).Inc()
	AddLogField(r.Context(), "document_id", doc.DocumentID)

	h := w.Header()
	h.Set("Content-Type", res.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	h.Set("Content-Length", strconv.Itoa(len(res.Body)))
	h.Set("X-Document-ID", doc.DocumentID)
	if res.Fallback {
		h.Set("X-Export-Fallback", string(export.FormatHTML))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Body)
}
