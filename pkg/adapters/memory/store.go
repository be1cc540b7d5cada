package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
)

// Store keeps session snapshots in a map. It is the default store of an embedded engine
// and of tests; everything is lost with the process.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.State
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{sessions: map[string]*domain.State{}}
}

func (s *Store) Save(_ context.Context, sessionID string, state *domain.State) error {
	snapshot := state.Clone()
	s.mu.Lock()
	s.sessions[sessionID] = snapshot
	s.mu.Unlock()
	return nil
}

func (s *Store) Load(_ context.Context, sessionID string) (*domain.State, error) {
	s.mu.RLock()
	snapshot, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return snapshot.Clone(), nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// List returns the session IDs in lexical order.
func (s *Store) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.sessions)), nil
}
