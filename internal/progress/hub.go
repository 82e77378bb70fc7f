package progress

import (
	"context"
	"sync"
	"time"
)

// Snapshot is the completion state of a session after a change.
type Snapshot struct {
	SessionID string          `json:"session_id"`
	Completed map[string]bool `json:"completed"`
	At        time.Time       `json:"at"`
}

// Hub fans completion snapshots out to session subscribers. Slow subscribers
// only ever see the latest snapshot.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Snapshot]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Snapshot]struct{})}
}

// Subscribe registers for snapshots of session. The returned cancel func must
// be called to release the subscription; it closes the channel.
func (h *Hub) Subscribe(session string) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	h.mu.Lock()
	if h.subs[session] == nil {
		h.subs[session] = make(map[chan Snapshot]struct{})
	}
	h.subs[session][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[session], ch)
			if len(h.subs[session]) == 0 {
				delete(h.subs, session)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers snap to every subscriber of its session without blocking.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[snap.SessionID] {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// Subscribers reports how many subscriptions session has.
func (h *Hub) Subscribers(session string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[session])
}

// Notifying wraps a Store and publishes a snapshot to the hub after every change.
type Notifying struct {
	Store
	hub *Hub
}

// WithHub returns store wrapped so that changes are published to hub.
func WithHub(store Store, hub *Hub) *Notifying {
	return &Notifying{Store: store, hub: hub}
}

// Hub returns the hub snapshots are published to.
func (n *Notifying) Hub() *Hub { return n.hub }

func (n *Notifying) SetCompleted(ctx context.Context, session, step string, done bool) error {
	if err := n.Store.SetCompleted(ctx, session, step, done); err != nil {
		return err
	}
	return n.publish(ctx, session)
}

func (n *Notifying) Clear(ctx context.Context, session string) error {
	if err := n.Store.Clear(ctx, session); err != nil {
		return err
	}
	return n.publish(ctx, session)
}

func (n *Notifying) publish(ctx context.Context, session string) error {
	if n.hub.Subscribers(session) == 0 {
		return nil
	}
	completed, err := n.Store.Completed(ctx, session)
	if err != nil {
		return err
	}
	n.hub.Publish(Snapshot{SessionID: session, Completed: completed, At: time.Now().UTC()})
	return nil
}
