package session

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps sessions in a process-local map. It is the default
// backend: session state is scoped to one call and one process, so losing it
// on restart only drops calls that were already in flight.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	locks    *keyedLocks
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		locks:    newKeyedLocks(),
	}
}

var _ Store = (*MemoryStore)(nil)

// Create registers a new session for callID.
func (s *MemoryStore) Create(_ context.Context, callID, callerNumber string) (*Session, error) {
	if callID == "" {
		return nil, fmt.Errorf("session: call id required")
	}
	release := s.locks.acquire(callID)
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[callID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, callID)
	}
	sess := NewSession(callID, callerNumber)
	s.sessions[callID] = sess
	return sess.Clone(), nil
}

// Get returns a copy of the session for callID.
func (s *MemoryStore) Get(_ context.Context, callID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[callID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, callID)
	}
	return sess.Clone(), nil
}

// Mutate applies fn to callID's session under its per-call lock.
func (s *MemoryStore) Mutate(_ context.Context, callID string, fn func(*Session) error) error {
	release := s.locks.acquire(callID)
	defer release()

	s.mu.RLock()
	current, ok := s.sessions[callID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, callID)
	}

	// fn works on a copy; the store only observes the result when fn succeeds.
	updated := current.Clone()
	if err := fn(updated); err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[callID] = updated
	s.mu.Unlock()
	return nil
}

// Remove deletes callID's session; absent sessions are ignored.
func (s *MemoryStore) Remove(_ context.Context, callID string) error {
	s.mu.Lock()
	delete(s.sessions, callID)
	s.mu.Unlock()
	return nil
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
