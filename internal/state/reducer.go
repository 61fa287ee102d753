package state

import (
	"slices"

	"github.com/google/uuid"
)

// Reducer computes the next state from the current one and an action.
// Apart from drawing fresh ids it has no side effects.
type Reducer struct {
	newID func() string
}

// ReducerOption customises a Reducer.
type ReducerOption func(*Reducer)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen func() string) ReducerOption {
	return func(r *Reducer) {
		r.newID = gen
	}
}

func NewReducer(opts ...ReducerOption) *Reducer {
	r := &Reducer{newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reduce returns the state that results from applying a to s. It never fails:
// actions that reference unknown entries leave the state unchanged.
func (r *Reducer) Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(reduction{s: s, newID: r.newID})
}

// reduction applies a single action to a single state.
type reduction struct {
	s     State
	newID func() string
}

var _ visitor = reduction{}

func (r reduction) addBudget(a AddBudget) State {
	if a.Amount.Cents <= 0 {
		return r.s
	}
	next := r.s
	next.Budget = a.Amount
	return next
}

func (r reduction) addExpense(a AddExpense) State {
	e := a.Entry
	e.ID = r.freshID()
	next := r.s
	next.Expenses = append(slices.Clip(r.s.Expenses), e)
	return next
}

// freshID draws ids until one is unused in the current list.
func (r reduction) freshID() string {
	for {
		id := r.newID()
		if id != "" && r.s.index(id) < 0 {
			return id
		}
	}
}

func (r reduction) updateExpense(a UpdateExpense) State {
	i := r.s.index(a.Entry.ID)
	if i < 0 {
		return r.s
	}
	next := r.s
	next.Expenses = slices.Clone(r.s.Expenses)
	next.Expenses[i] = a.Entry
	next.EditingID = ""
	return next
}

func (r reduction) deleteExpense(a DeleteExpense) State {
	i := r.s.index(a.ID)
	if i < 0 {
		return r.s
	}
	next := r.s
	next.Expenses = slices.Delete(slices.Clone(r.s.Expenses), i, i+1)
	if next.EditingID == a.ID {
		next.EditingID = ""
	}
	return next
}

func (r reduction) getExpenseByID(a GetExpenseByID) State {
	if r.s.index(a.ID) < 0 {
		return r.s
	}
	next := r.s
	next.EditingID = a.ID
	return next
}

func (r reduction) removeEditingID(RemoveEditingID) State {
	next := r.s
	next.EditingID = ""
	return next
}

func (r reduction) setActiveCategory(a SetActiveCategory) State {
	next := r.s
	next.ActiveCategory = a.Category
	return next
}

func (r reduction) restartApp(RestartApp) State {
	return Initial()
}
