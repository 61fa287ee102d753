package memory

import (
	"context"
	"slices"
	"sync"

	"presupuesto/internal/persistence"
	"presupuesto/internal/state"
)

// Store keeps the last saved snapshot in process memory.
type Store struct {
	mu       sync.Mutex
	snapshot *state.State
	saves    int
}

var _ persistence.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// NewWith returns a store that already holds s.
func NewWith(s state.State) *Store {
	st := New()
	st.snapshot = clone(s)
	return st
}

// Load returns a copy of the last snapshot, or nil if none was saved.
func (s *Store) Load(_ context.Context) (*state.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, nil
	}
	return clone(*s.snapshot), nil
}

// Save replaces the snapshot.
func (s *Store) Save(_ context.Context, st state.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = clone(st)
	s.saves++
	return nil
}

// Saves returns how many snapshots were saved.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func clone(s state.State) *state.State {
	s.Expenses = slices.Clone(s.Expenses)
	return &s
}
