package lockout

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used when no Redis is configured.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[key], nil
}

func (s *MemoryStore) RecordFailure(_ context.Context, key string, now time.Time, threshold int, window time.Duration) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[key]
	if state.LockedUntil != nil && !state.LockedUntil.After(now) {
		state = State{}
	}
	state.FailedCount++
	if state.FailedCount >= threshold {
		lockedUntil := now.Add(window).UTC()
		state.LockedUntil = &lockedUntil
	}
	s.states[key] = state
	return state, nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}
