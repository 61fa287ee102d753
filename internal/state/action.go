package state

import "presupuesto/internal/core"

// Kind names an action the way it appears in logs and events.
type Kind string

const (
	KindAddBudget         Kind = "add-budget"
	KindAddExpense        Kind = "add-expense"
	KindUpdateExpense     Kind = "update-expense"
	KindDeleteExpense     Kind = "delete-expense"
	KindGetExpenseByID    Kind = "get-expense-by-id"
	KindRemoveEditingID   Kind = "remove-editing-id"
	KindSetActiveCategory Kind = "set-active-category"
	KindRestartApp        Kind = "restart-app"
)

// Action is the closed set of transitions accepted by the reducer.
//
// Every action dispatches itself to the matching visitor method, so adding
// an action type without teaching the reducer about it does not compile.
type Action interface {
	Kind() Kind
	apply(v visitor) State
}

// visitor has one method per action type.
type visitor interface {
	addBudget(AddBudget) State
	addExpense(AddExpense) State
	updateExpense(UpdateExpense) State
	deleteExpense(DeleteExpense) State
	getExpenseByID(GetExpenseByID) State
	removeEditingID(RemoveEditingID) State
	setActiveCategory(SetActiveCategory) State
	restartApp(RestartApp) State
}

type (
	// AddBudget sets the total budget.
	AddBudget struct {
		Amount core.Money
	}

	// AddExpense appends a validated entry under a freshly generated id.
	AddExpense struct {
		Entry core.Entry
	}

	// UpdateExpense replaces the entry sharing Entry.ID.
	UpdateExpense struct {
		Entry core.Entry
	}

	DeleteExpense struct {
		ID string
	}

	// GetExpenseByID opens an entry for edit.
	GetExpenseByID struct {
		ID string
	}

	RemoveEditingID struct{}

	// SetActiveCategory narrows the visible entries; empty clears the filter.
	SetActiveCategory struct {
		Category core.CategoryID
	}

	RestartApp struct{}
)

func (AddBudget) Kind() Kind         { return KindAddBudget }
func (AddExpense) Kind() Kind        { return KindAddExpense }
func (UpdateExpense) Kind() Kind     { return KindUpdateExpense }
func (DeleteExpense) Kind() Kind     { return KindDeleteExpense }
func (GetExpenseByID) Kind() Kind    { return KindGetExpenseByID }
func (RemoveEditingID) Kind() Kind   { return KindRemoveEditingID }
func (SetActiveCategory) Kind() Kind { return KindSetActiveCategory }
func (RestartApp) Kind() Kind        { return KindRestartApp }

func (a AddBudget) apply(v visitor) State         { return v.addBudget(a) }
func (a AddExpense) apply(v visitor) State        { return v.addExpense(a) }
func (a UpdateExpense) apply(v visitor) State     { return v.updateExpense(a) }
func (a DeleteExpense) apply(v visitor) State     { return v.deleteExpense(a) }
func (a GetExpenseByID) apply(v visitor) State    { return v.getExpenseByID(a) }
func (a RemoveEditingID) apply(v visitor) State   { return v.removeEditingID(a) }
func (a SetActiveCategory) apply(v visitor) State { return v.setActiveCategory(a) }
func (a RestartApp) apply(v visitor) State        { return v.restartApp(a) }
