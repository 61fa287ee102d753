package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"presupuesto/internal/amqp"
	"presupuesto/internal/core"
	applog "presupuesto/internal/log"
	"presupuesto/internal/persistence/memory"
	"presupuesto/internal/state"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.BudgetEvent
	err    error
}

func (f *fakePublisher) PublishBudgetEvent(_ context.Context, ev *amqp.BudgetEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Action
	}
	return out
}

type failingSaver struct{}

func (failingSaver) Save(context.Context, state.State) error {
	return errors.New("disk full")
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type fixture struct {
	svc    *BudgetService
	saver  *memory.Store
	events *fakePublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := state.NewStore(state.Initial(), state.NewReducer(state.WithIDGenerator(sequentialIDs())))
	saver := memory.New()
	events := &fakePublisher{}
	svc := NewBudgetService(store, core.DefaultCatalog(),
		WithSaver(saver),
		WithEvents(events),
		WithLogger(applog.New(applog.Config{Output: io.Discard})),
	)
	return fixture{svc: svc, saver: saver, events: events}
}

func expense(name, amount, category string) core.Candidate {
	return core.Candidate{
		Type:        string(core.TypeExpense),
		ExpenseName: name,
		Amount:      amount,
		Category:    category,
		Date:        core.NewDate(2024, 5, 10),
	}
}

func income(name, amount string) core.Candidate {
	return core.Candidate{
		Type:        string(core.TypeIncome),
		ExpenseName: name,
		Amount:      amount,
		Date:        core.NewDate(2024, 5, 1),
	}
}

func TestSetBudget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.SetBudget(ctx, "abc"); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("SetBudget(abc) error = %v, want ErrInvalidBudget", err)
	}
	if _, err := f.svc.SetBudget(ctx, "0"); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("SetBudget(0) error = %v, want ErrInvalidBudget", err)
	}

	got, err := f.svc.SetBudget(ctx, "1000,50")
	if err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	if got.Cents != 100050 {
		t.Errorf("SetBudget() = %d cents, want 100050", got.Cents)
	}

	if _, err := f.svc.SetBudget(ctx, "20"); !errors.Is(err, ErrBudgetAlreadySet) {
		t.Errorf("second SetBudget() error = %v, want ErrBudgetAlreadySet", err)
	}
	if f.saver.Saves() != 1 {
		t.Errorf("saves = %d, want 1", f.saver.Saves())
	}
}

func TestAddEntryScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.SetBudget(ctx, "1000"); err != nil {
		t.Fatal(err)
	}
	groceries, err := f.svc.AddEntry(ctx, expense("Groceries", "200", "1"))
	if err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if groceries.ID != "id-1" || groceries.Icon != "comida" {
		t.Errorf("unexpected entry %+v", groceries)
	}
	salary, err := f.svc.AddEntry(ctx, income("Salary", "500"))
	if err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if salary.Icon != core.IncomeIcon || salary.Category != "" {
		t.Errorf("unexpected income %+v", salary)
	}

	v := f.svc.View()
	if v.Summary.TotalExpenses.Cents != 20000 || v.Summary.TotalIncomes.Cents != 50000 {
		t.Errorf("unexpected totals %+v", v.Summary)
	}
	if v.Summary.Available.Cents != 130000 || v.Summary.UsagePercentage != 20 {
		t.Errorf("unexpected summary %+v", v.Summary)
	}
	if v.Tier != core.TierLow {
		t.Errorf("tier = %v, want low", v.Tier)
	}

	saved, _ := f.saver.Load(ctx)
	if saved == nil || len(saved.Expenses) != 2 {
		t.Fatalf("saved snapshot = %+v", saved)
	}

	want := []string{"add-budget", "add-expense", "add-expense"}
	if got := f.events.actions(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestAddEntryValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name string
		c    core.Candidate
		want error
	}{
		{"missing name", expense("", "10", "1"), core.ErrMissingField},
		{"missing category", expense("Cinema", "10", ""), core.ErrMissingField},
		{"bad amount", expense("Cinema", "ten", "4"), core.ErrInvalidAmount},
		{"negative amount", expense("Cinema", "-5", "4"), core.ErrInvalidAmount},
		{"unknown category", expense("Cinema", "10", "99"), core.ErrUnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddEntry(ctx, tt.c)
			if !errors.Is(err, tt.want) {
				t.Errorf("AddEntry() error = %v, want %v", err, tt.want)
			}
		})
	}

	if n := len(f.svc.View().State.Expenses); n != 0 {
		t.Errorf("invalid entries reached the state: %d", n)
	}
	if f.saver.Saves() != 0 || len(f.events.actions()) != 0 {
		t.Errorf("rejected input was committed")
	}
}

func TestEditFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e, err := f.svc.AddEntry(ctx, expense("Rent", "700", "2"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.StartEditing(ctx, "missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("StartEditing(missing) error = %v", err)
	}

	opened, err := f.svc.StartEditing(ctx, e.ID)
	if err != nil {
		t.Fatalf("StartEditing() error = %v", err)
	}
	if opened.ExpenseName != "Rent" {
		t.Errorf("StartEditing() = %+v", opened)
	}
	if v := f.svc.View(); v.Editing == nil || v.Editing.ID != e.ID {
		t.Fatalf("View().Editing = %v", v.Editing)
	}

	// Submitting while editing updates the open entry instead of adding.
	updated, wasUpdate, err := f.svc.SubmitEntry(ctx, expense("Rent", "750", "2"))
	if err != nil {
		t.Fatalf("SubmitEntry() error = %v", err)
	}
	if !wasUpdate || updated.ID != e.ID || updated.Amount.Cents != 75000 {
		t.Errorf("SubmitEntry() = %+v", updated)
	}
	v := f.svc.View()
	if len(v.State.Expenses) != 1 || v.Editing != nil {
		t.Errorf("unexpected state after update %+v", v.State)
	}

	// With no entry open, submit adds.
	added, wasUpdate, err := f.svc.SubmitEntry(ctx, expense("Netflix", "12", "5"))
	if err != nil {
		t.Fatalf("SubmitEntry() error = %v", err)
	}
	if wasUpdate || added.ID == e.ID || len(f.svc.View().State.Expenses) != 2 {
		t.Errorf("SubmitEntry() did not add a new entry: %+v", added)
	}

	if _, err := f.svc.StartEditing(ctx, added.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.StopEditing(ctx); err != nil {
		t.Fatal(err)
	}
	if f.svc.View().Editing != nil {
		t.Error("StopEditing() left an entry open")
	}
}

func TestUpdateAndDeleteUnknownEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.UpdateEntry(ctx, "nope", expense("x", "1", "1")); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("UpdateEntry() error = %v", err)
	}
	if err := f.svc.DeleteEntry(ctx, "nope"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("DeleteEntry() error = %v", err)
	}
	if f.saver.Saves() != 0 {
		t.Errorf("saves = %d, want 0", f.saver.Saves())
	}
}

func TestDeleteEntryClosesEditing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e, _ := f.svc.AddEntry(ctx, expense("Gym", "30", "4"))
	if _, err := f.svc.StartEditing(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteEntry(ctx, e.ID); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	v := f.svc.View()
	if len(v.State.Expenses) != 0 || v.State.EditingID != "" {
		t.Errorf("unexpected state %+v", v.State)
	}
}

func TestCategoryFilterKeepsTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.svc.SetBudget(ctx, "100")
	f.svc.AddEntry(ctx, expense("Bread", "10", "1"))
	f.svc.AddEntry(ctx, expense("Movie", "20", "4"))
	f.svc.AddEntry(ctx, income("Gift", "5"))

	if err := f.svc.SetCategoryFilter(ctx, "99"); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("SetCategoryFilter(99) error = %v", err)
	}
	if err := f.svc.SetCategoryFilter(ctx, "4"); err != nil {
		t.Fatal(err)
	}
	v := f.svc.View()
	if len(v.Visible) != 1 || v.Visible[0].ExpenseName != "Movie" {
		t.Errorf("Visible = %+v", v.Visible)
	}
	if v.Summary.TotalExpenses.Cents != 3000 || v.Summary.Available.Cents != 7500 {
		t.Errorf("filter changed totals: %+v", v.Summary)
	}

	if err := f.svc.SetCategoryFilter(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if n := len(f.svc.View().Visible); n != 3 {
		t.Errorf("Visible after clearing filter = %d entries, want 3", n)
	}
}

func TestRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.svc.SetBudget(ctx, "100")
	f.svc.AddEntry(ctx, expense("Bread", "10", "1"))
	if err := f.svc.Restart(ctx); err != nil {
		t.Fatal(err)
	}
	v := f.svc.View()
	if v.State.IsConfigured() || len(v.State.Expenses) != 0 {
		t.Errorf("Restart() left state %+v", v.State)
	}
	// A new cycle accepts a budget again.
	if _, err := f.svc.SetBudget(ctx, "50"); err != nil {
		t.Errorf("SetBudget() after restart error = %v", err)
	}
}

func TestSaveFailureIsReturned(t *testing.T) {
	store := state.NewStore(state.Initial(), nil)
	events := &fakePublisher{}
	svc := NewBudgetService(store, core.DefaultCatalog(),
		WithSaver(failingSaver{}),
		WithEvents(events),
		WithLogger(applog.New(applog.Config{Output: io.Discard})),
	)

	_, err := svc.AddEntry(context.Background(), expense("Bread", "1", "1"))
	if err == nil {
		t.Fatal("expected save error")
	}
	if len(events.actions()) != 0 {
		t.Error("event published for an unsaved transition")
	}
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")

	if _, err := f.svc.AddEntry(context.Background(), expense("Bread", "1", "1")); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if f.saver.Saves() != 1 {
		t.Errorf("saves = %d, want 1", f.saver.Saves())
	}
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := state.NewStore(state.Initial(), nil)
	svc := NewBudgetService(store, core.DefaultCatalog(),
		WithLogger(applog.New(applog.Config{Output: io.Discard})))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddEntry(ctx, expense("Coffee", "1.50", "3")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	v := svc.View()
	if len(v.State.Expenses) != 50 || v.Summary.TotalExpenses.Cents != 7500 {
		t.Errorf("got %d entries totalling %d cents", len(v.State.Expenses), v.Summary.TotalExpenses.Cents)
	}
	ids := make(map[string]bool)
	for _, e := range v.State.Expenses {
		ids[e.ID] = true
	}
	if len(ids) != 50 {
		t.Errorf("ids are not unique: %d distinct", len(ids))
	}
}

// A submit racing an edit either adds before the edit opens or updates the
// opened entry; it never adds while an entry is open.
func TestSubmitEntryConcurrentWithStartEditing(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		f := newFixture(t)
		rent, err := f.svc.AddEntry(ctx, expense("Rent", "700", "2"))
		if err != nil {
			t.Fatal(err)
		}

		var (
			wg      sync.WaitGroup
			updated bool
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := f.svc.StartEditing(ctx, rent.ID); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			var err error
			if _, updated, err = f.svc.SubmitEntry(ctx, expense("Rent", "750", "2")); err != nil {
				t.Error(err)
			}
		}()
		wg.Wait()

		got := f.events.actions()[1:]
		want := []string{string(state.KindAddExpense), string(state.KindGetExpenseByID)}
		if updated {
			want = []string{string(state.KindGetExpenseByID), string(state.KindUpdateExpense)}
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("iteration %d: updated=%v, actions = %v, want %v", i, updated, got, want)
		}
	}
}
