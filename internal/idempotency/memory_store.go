package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps claims in process memory. Expired claims are pruned while claiming.
type MemoryStore struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		claims: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Claim implements Store.
func (s *MemoryStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, expiresAt := range s.claims {
		if !expiresAt.After(now) {
			delete(s.claims, k)
		}
	}

	if _, ok := s.claims[key]; ok {
		return false, nil
	}

	s.claims[key] = now.Add(ttl)
	return true, nil
}

// Release implements Store.
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.claims, key)
	return nil
}
