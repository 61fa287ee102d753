// Package state owns the budget tracker's single source of truth.
//
// A State value is never modified once produced: every transition returns a
// fresh value, so readers may keep and share the values they receive.
package state

import "presupuesto/internal/core"

// State is the complete budget tracker state.
type State struct {
	Budget         core.Money
	Expenses       []core.Entry // insertion order, unique ids
	EditingID      string       // empty when no entry is open for edit
	ActiveCategory core.CategoryID
}

// Initial returns the state of a freshly started tracker.
func Initial() State {
	return State{}
}

// IsConfigured reports whether a budget has been set.
func (s State) IsConfigured() bool {
	return s.Budget.Cents > 0
}

func (s State) index(id string) int {
	if id == "" {
		return -1
	}
	for i, e := range s.Expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Entry looks up an entry by id.
func (s State) Entry(id string) (core.Entry, bool) {
	i := s.index(id)
	if i < 0 {
		return core.Entry{}, false
	}
	return s.Expenses[i], true
}

// Editing returns the entry currently open for edit, if any.
func (s State) Editing() (core.Entry, bool) {
	return s.Entry(s.EditingID)
}

// Visible returns the entries matching the active category filter. Incomes
// carry no category and are hidden while a filter is active.
func (s State) Visible() []core.Entry {
	if s.ActiveCategory == "" {
		return append([]core.Entry(nil), s.Expenses...)
	}
	out := make([]core.Entry, 0, len(s.Expenses))
	for _, e := range s.Expenses {
		if e.Category == s.ActiveCategory {
			out = append(out, e)
		}
	}
	return out
}

// Summary derives totals from the full entry list, regardless of the
// active category filter.
func (s State) Summary() core.Summary {
	return core.Aggregate(s.Budget, s.Expenses)
}
