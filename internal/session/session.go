// Package session holds generated timelines in a bounded in-memory cache.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"chronosec/internal/progress"
	"chronosec/pkg/models"
)

// ErrNotFound is returned for a session that was never created or was evicted.
var ErrNotFound = errors.New("session not found")

// ErrStepNotFound is returned when marking a step the session's timeline lacks.
var ErrStepNotFound = errors.New("step not found")

// DefaultSize is the cache capacity used when none is configured.
const DefaultSize = 1024

// Manager keeps the latest timeline of each session. Completion state is kept
// in the progress store and cleared whenever a session's timeline is replaced.
type Manager struct {
	cache    *lru.Cache[string, models.Timeline]
	progress progress.Store
	onEvict  func(id string)
}

// NewManager creates a manager holding up to size sessions.
func NewManager(size int, store progress.Store) (*Manager, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if store == nil {
		store = progress.NewMemoryStore()
	}
	m := &Manager{progress: store}
	cache, err := lru.NewWithEvict[string, models.Timeline](size, m.evicted)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	m.cache = cache
	return m, nil
}

// OnEvict registers fn to run whenever a session is evicted or deleted.
// Call it before the manager is shared.
func (m *Manager) OnEvict(fn func(id string)) {
	m.onEvict = fn
}

func (m *Manager) evicted(id string, _ models.Timeline) {
	_ = m.progress.Clear(context.Background(), id)
	if m.onEvict != nil {
		m.onEvict(id)
	}
}

// Put stores tl under id, replacing any earlier timeline and its progress.
// An empty id allocates a new session. The stored timeline carries its session id.
func (m *Manager) Put(ctx context.Context, id string, tl models.Timeline) (models.Timeline, error) {
	if id == "" {
		id = uuid.NewString()
	} else if err := m.progress.Clear(ctx, id); err != nil {
		// Durable stores keep flags across restarts even when the id is not cached.
		return models.Timeline{}, err
	}
	tl.SessionID = id
	m.cache.Add(id, tl)
	return tl, nil
}

// Get returns the timeline of session id.
func (m *Manager) Get(id string) (models.Timeline, error) {
	tl, ok := m.cache.Get(id)
	if !ok {
		return models.Timeline{}, ErrNotFound
	}
	return tl, nil
}

// Completed returns the completion flags of session id.
func (m *Manager) Completed(ctx context.Context, id string) (map[string]bool, error) {
	if !m.cache.Contains(id) {
		return nil, ErrNotFound
	}
	return m.progress.Completed(ctx, id)
}

// SetCompleted marks a step of session id complete or incomplete. Unknown
// steps are rejected.
func (m *Manager) SetCompleted(ctx context.Context, id, step string, done bool) error {
	tl, ok := m.cache.Get(id)
	if !ok {
		return ErrNotFound
	}
	if _, ok := tl.Step(step); !ok {
		return fmt.Errorf("%w: step %q", ErrStepNotFound, step)
	}
	return m.progress.SetCompleted(ctx, id, step, done)
}

// Delete drops session id and its progress.
func (m *Manager) Delete(id string) bool {
	return m.cache.Remove(id)
}

// Len reports the number of cached sessions.
func (m *Manager) Len() int { return m.cache.Len() }

// IDs lists cached session ids from oldest to newest.
func (m *Manager) IDs() []string { return m.cache.Keys() }
