package oauth

import (
	"context"
	"sync"
	"time"
)

// MemoryStateStore is an in-memory StateStore for db-less development and
// tests. Delete-under-lock gives the same consume-once guarantee the
// Postgres backend gets from its single DELETE statement.
type MemoryStateStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	recs map[string]memoryState
}

type memoryState struct {
	provider  Tag
	expiresAt time.Time
}

// NewMemoryStateStore constructs an empty MemoryStateStore.
func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	if ttl <= 0 {
		ttl = DefaultConfig().StateTTL
	}
	return &MemoryStateStore{ttl: ttl, recs: make(map[string]memoryState)}
}

func (s *MemoryStateStore) Begin(_ context.Context, now time.Time, provider Tag) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := newStateNonce()
	s.recs[state] = memoryState{provider: provider, expiresAt: now.Add(s.ttl)}
	return state, nil
}

func (s *MemoryStateStore) Consume(_ context.Context, now time.Time, state string, provider Tag) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[state]
	if !ok {
		return false, nil
	}
	delete(s.recs, state)

	if !rec.expiresAt.After(now) {
		return false, nil
	}
	return rec.provider == provider, nil
}

func (s *MemoryStateStore) Purge(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for state, rec := range s.recs {
		if rec.expiresAt.Before(before) {
			delete(s.recs, state)
			n++
		}
	}
	return n, nil
}
