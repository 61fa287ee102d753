// Package persistence declares the contract between the state core and a
// durable store. The core runs without one and starts from the initial state.
package persistence

import (
	"context"

	"presupuesto/internal/state"
)

type (
	// Loader returns the last saved state, or nil when nothing was saved yet.
	Loader interface {
		Load(ctx context.Context) (*state.State, error)
	}

	// Saver records a state snapshot, replacing any previous one.
	Saver interface {
		Save(ctx context.Context, s state.State) error
	}

	Store interface {
		Loader
		Saver
	}
)

// LoadOrInitial loads the saved state from l, falling back to the initial
// state when l is nil or holds no snapshot.
func LoadOrInitial(ctx context.Context, l Loader) (state.State, error) {
	if l == nil {
		return state.Initial(), nil
	}
	s, err := l.Load(ctx)
	if err != nil {
		return state.Initial(), err
	}
	if s == nil {
		return state.Initial(), nil
	}
	return *s, nil
}
