// Package progress tracks which timeline steps have been marked complete.
// Completion lives outside the steps themselves, keyed by session and step id.
package progress

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Store persists step completion per session.
type Store interface {
	SetCompleted(ctx context.Context, session, step string, done bool) error
	Completed(ctx context.Context, session string) (map[string]bool, error)
	Clear(ctx context.Context, session string) error
	Close() error
}

// Config selects and configures a Store backend.
type Config struct {
	Mode  string
	Redis RedisConfig
	// SQLitePath is a file path or DSN for the sqlite backend.
	SQLitePath string
}

// New opens the backend named by cfg.Mode: memory (default), redis or sqlite.
func New(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.Redis)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported progress mode: %s", cfg.Mode)
	}
}

// MemoryStore keeps completion state in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]bool)}
}

func (s *MemoryStore) SetCompleted(_ context.Context, session, step string, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps := s.sessions[session]
	if !done {
		delete(steps, step)
		return nil
	}
	if steps == nil {
		steps = make(map[string]bool)
		s.sessions[session] = steps
	}
	steps[step] = true
	return nil
}

func (s *MemoryStore) Completed(_ context.Context, session string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.sessions[session]))
	for k, v := range s.sessions[session] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, session string) error {
	s.mu.Lock()
	delete(s.sessions, session)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
