// Package deadlines raises notices for steps that are due soon or overdue.
package deadlines

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"chronosec/pkg/models"
)

// DefaultMaxSessions bounds how many sessions a Tracker remembers.
const DefaultMaxSessions = 4096

// Config controls notice behavior.
type Config struct {
	// Window is how far ahead a pending step counts as due soon.
	Window time.Duration
	// Cooldown suppresses repeat notices for the same step and state.
	Cooldown time.Duration
	// MaxSessions caps remembered sessions; the least recently evaluated is dropped first.
	MaxSessions int
}

// Check classifies every incomplete step of steps against now. It has no
// memory; use a Tracker to suppress repeats.
func Check(steps []models.TimelineStep, completed map[string]bool, now time.Time, window time.Duration) []models.DeadlineAlert {
	var out []models.DeadlineAlert
	horizon := now.Add(window)
	for _, s := range steps {
		if completed[s.ID] {
			continue
		}
		var state models.DeadlineState
		switch {
		case s.Time.Before(now):
			state = models.DeadlineOverdue
		case !s.Time.After(horizon):
			state = models.DeadlineDueSoon
		default:
			continue
		}
		out = append(out, models.DeadlineAlert{
			StepID:    s.ID,
			Title:     s.Title,
			Type:      s.Type,
			Due:       s.Time,
			State:     state,
			Remaining: s.Time.Sub(now),
			RaisedAt:  now,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
	return out
}

// Tracker remembers the last notice per session and step.
type Tracker struct {
	mu        sync.Mutex
	cfg       Config
	bySession *lru.Cache[string, map[string]*stepState]
	now       func() time.Time
}

type stepState struct {
	state     models.DeadlineState
	lastAlert time.Time
}

// NewTracker creates a new tracker.
func NewTracker(cfg Config) *Tracker {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Hour
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, map[string]*stepState](cfg.MaxSessions)
	return &Tracker{
		cfg:       cfg,
		bySession: cache,
		now:       time.Now,
	}
}

// Window returns the due-soon window.
func (t *Tracker) Window() time.Duration { return t.cfg.Window }

// Evaluate returns the notices for session that are new, changed state, or
// whose cooldown has passed.
func (t *Tracker) Evaluate(session string, steps []models.TimelineStep, completed map[string]bool) []models.DeadlineAlert {
	now := t.now()
	current := Check(steps, completed, now, t.cfg.Window)

	t.mu.Lock()
	defer t.mu.Unlock()

	states, ok := t.bySession.Get(session)
	if !ok {
		if len(current) == 0 {
			return nil
		}
		states = make(map[string]*stepState)
		t.bySession.Add(session, states)
	}

	var out []models.DeadlineAlert
	seen := make(map[string]struct{}, len(current))
	for _, a := range current {
		seen[a.StepID] = struct{}{}
		st := states[a.StepID]
		if st == nil {
			st = &stepState{}
			states[a.StepID] = st
		}
		if st.state == a.State && !st.lastAlert.IsZero() && now.Sub(st.lastAlert) < t.cfg.Cooldown {
			continue
		}
		st.state = a.State
		st.lastAlert = now
		a.SessionID = session
		a.AlertID = uuid.NewString()
		out = append(out, a)
	}
	for id := range states {
		if _, ok := seen[id]; !ok {
			delete(states, id)
		}
	}
	if len(states) == 0 {
		t.bySession.Remove(session)
	}
	return out
}

// Forget drops all state for session.
func (t *Tracker) Forget(session string) {
	t.bySession.Remove(session)
}

// Sessions reports how many sessions currently hold notice state.
func (t *Tracker) Sessions() int { return t.bySession.Len() }
