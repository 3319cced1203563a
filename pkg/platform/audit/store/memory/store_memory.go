// Package memory is the fallback audit store used when no database or Redis
// is configured. History is lost on restart.
package memory

import (
	"context"
	"sync"

	audit "studioreg/pkg/platform/audit"
)

// defaultCapacity bounds the history; once full the oldest event is overwritten.
const defaultCapacity = 10000

// InMemoryStore is a fixed-size ring of audit events.
type InMemoryStore struct {
	mu     sync.RWMutex
	ring   []audit.Event
	next   int // slot the next Append writes
	filled bool
}

func NewInMemoryStore() *InMemoryStore {
	return NewInMemoryStoreWithCapacity(defaultCapacity)
}

func NewInMemoryStoreWithCapacity(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &InMemoryStore{ring: make([]audit.Event, capacity)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = event
	s.next = (s.next + 1) % len(s.ring)
	if s.next == 0 {
		s.filled = true
	}
	return nil
}

// ListRecent returns up to limit events, newest first. limit <= 0 means all.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.lenLocked()
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]audit.Event, limit)
	for i := range out {
		out[i] = s.ring[(s.next-1-i+len(s.ring))%len(s.ring)]
	}
	return out, nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lenLocked()
}

func (s *InMemoryStore) lenLocked() int {
	if s.filled {
		return len(s.ring)
	}
	return s.next
}

// Clear drops every stored event.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ring)
	s.next, s.filled = 0, false
}
