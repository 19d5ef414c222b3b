// Package memory provides in-process adapters: a StateStore for ephemeral
// runs and a ProgramSource whose programs can be edited between rounds.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/loophound/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.RunState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.RunState),
	}
}

// Save persists the run state in memory. The state is deep-copied so the
// caller cannot mutate the stored snapshot afterwards.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.RunState) error {
	cp := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = cp
	return nil
}

// Load retrieves the run state from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.RunState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone(), nil
}

// Delete removes the run state.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns active sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
