package state

import "sync"

// Transition records one dispatched action with the states around it.
type Transition struct {
	Action Action
	Before State
	After  State
}

// Store holds the current state and serialises transitions, so no two
// actions are ever reduced concurrently.
type Store struct {
	mu      sync.RWMutex
	current State
	reducer *Reducer
}

// NewStore creates a store starting at initial.
func NewStore(initial State, reducer *Reducer) *Store {
	if reducer == nil {
		reducer = NewReducer()
	}
	return &Store{current: initial, reducer: reducer}
}

// State returns the current state value.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Dispatch reduces a against the current state and makes the result current.
func (s *Store) Dispatch(a Action) Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.current
	s.current = s.reducer.Reduce(before, a)
	return Transition{Action: a, Before: before, After: s.current}
}
