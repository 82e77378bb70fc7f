package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"chronosec/internal/progress"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

var progressUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(u.Host), strings.TrimSpace(r.Host))
	},
}

// handleProgressWS streams completion snapshots of one session. The current
// state is sent on connect, then every change.
func (s *Server) handleProgressWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.hub == nil {
		writeError(w, r, http.StatusNotImplemented, errNoHub)
		return
	}
	completed, err := s.sessions.Completed(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, err)
		return
	}

	updates, cancel := s.hub.Subscribe(id)
	defer cancel()

	conn, err := progressUpgrader.Upgrade(w, r, nil)
	if err != nil {
		AddError(r.Context(), err)
		return
	}
	defer conn.Close()

	if err := writeSnapshot(conn, progress.Snapshot{SessionID: id, Completed: completed, At: s.now().UTC()}); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeSnapshot(conn, snap); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeSnapshot(conn *websocket.Conn, snap progress.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(snap)
}
