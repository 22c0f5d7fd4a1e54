package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/formflow/pkg/api"
)

// EventStore is an append-only history store for form session events.
type EventStore interface {
	AppendEvent(ctx context.Context, ev api.FormEvent) error
	ListEvents(ctx context.Context, sessionID string) ([]api.FormEvent, error)
}

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.FormEvent) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, sessionID string) ([]api.FormEvent, error) {
	return nil, nil
}

// InMemoryEventStore keeps events per session in insertion order.
type InMemoryEventStore struct {
	mu     sync.Mutex
	events map[string][]api.FormEvent
}

var _ EventStore = (*InMemoryEventStore)(nil)

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{events: make(map[string][]api.FormEvent)}
}

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, ev api.FormEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.SessionID] = append(s.events[ev.SessionID], ev)
	return nil
}

func (s *InMemoryEventStore) ListEvents(ctx context.Context, sessionID string) ([]api.FormEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.FormEvent(nil), s.events[sessionID]...), nil
}
