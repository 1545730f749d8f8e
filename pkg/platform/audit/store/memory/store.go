package memory

import (
	"context"
	"sort"
	"sync"

	id "dashgate/pkg/domain"
	audit "dashgate/pkg/platform/audit"
)

// InMemoryStore keeps events in process. Used when no database is configured
// and in tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByPrincipal(_ context.Context, principalID id.PrincipalID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.PrincipalID == principalID {
			out = append(out, e)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	out := append([]audit.Event(nil), s.events...)
	s.mu.RUnlock()
	sortNewestFirst(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(events []audit.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}
