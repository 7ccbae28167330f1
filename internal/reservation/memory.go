package reservation

import (
	"context"
	"sync"
)

// MemoryStore keeps reservations in process memory for the server's lifetime.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Reservation
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, r Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.items {
		if r.ID == id {
			return r, nil
		}
	}
	return Reservation{}, ErrNotFound
}

func (s *MemoryStore) ListByEmail(_ context.Context, email string) ([]Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := EmailKey(email)
	out := make([]Reservation, 0, len(s.items))
	for _, r := range s.items {
		if email == "" || EmailKey(r.CustomerEmail) == key {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
