package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"presupuesto/internal/amqp"
	"presupuesto/internal/core"
	applog "presupuesto/internal/log"
	"presupuesto/internal/persistence"
	"presupuesto/internal/state"
)

// EventPublisher delivers budget change notifications.
type EventPublisher interface {
	PublishBudgetEvent(ctx context.Context, ev *amqp.BudgetEvent) error
}

// View is what a presentation needs to render the tracker.
type View struct {
	State   state.State
	Visible []core.Entry
	Summary core.Summary
	Tier    core.UsageTier
	Editing *core.Entry
}

// BudgetService orchestrates validation, state transitions, persistence and
// event publishing. Every mutating call runs in four steps: validate the
// input, dispatch one action, save the resulting state, publish an event.
type BudgetService struct {
	store     *state.Store
	catalog   core.Catalog
	validator *core.Validator

	saver  persistence.Saver
	events EventPublisher
	logger *applog.Logger

	// mu keeps check, dispatch and save together so snapshots reach the
	// saver in transition order.
	mu sync.Mutex
}

type Option func(*BudgetService)

func WithSaver(s persistence.Saver) Option {
	return func(svc *BudgetService) { svc.saver = s }
}

func WithEvents(p EventPublisher) Option {
	return func(svc *BudgetService) { svc.events = p }
}

func WithLogger(l *applog.Logger) Option {
	return func(svc *BudgetService) { svc.logger = l }
}

func NewBudgetService(store *state.Store, catalog core.Catalog, opts ...Option) *BudgetService {
	svc := &BudgetService{
		store:     store,
		catalog:   catalog,
		validator: core.NewValidator(catalog),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = applog.New(applog.DefaultConfig())
	}
	svc.logger = svc.logger.WithComponent(applog.ComponentBudget)
	return svc
}

// Catalog returns the reference data used for validation.
func (s *BudgetService) Catalog() core.Catalog {
	return s.catalog
}

// View derives the presentation view of the current state.
func (s *BudgetService) View() View {
	return viewOf(s.store.State())
}

func viewOf(st state.State) View {
	sum := st.Summary()
	v := View{
		State:   st,
		Visible: st.Visible(),
		Summary: sum,
		Tier:    sum.Tier(),
	}
	if e, ok := st.Editing(); ok {
		v.Editing = &e
	}
	return v
}

// SetBudget sets the monthly budget. It can only be set once per cycle;
// Restart clears it.
func (s *BudgetService) SetBudget(ctx context.Context, raw string) (core.Money, error) {
	amount, err := core.ParseBudget(raw)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %w", ErrInvalidBudget, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.State().IsConfigured() {
		return core.Money{}, ErrBudgetAlreadySet
	}

	tr := s.store.Dispatch(state.AddBudget{Amount: amount})
	if err := s.commit(ctx, tr, ""); err != nil {
		return core.Money{}, err
	}
	return tr.After.Budget, nil
}

// AddEntry validates c and appends it as a new entry.
func (s *BudgetService) AddEntry(ctx context.Context, c core.Candidate) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(ctx, c)
}

func (s *BudgetService) addLocked(ctx context.Context, c core.Candidate) (core.Entry, error) {
	e, err := s.validator.ValidateCandidate(c)
	if err != nil {
		return core.Entry{}, err
	}

	tr := s.store.Dispatch(state.AddExpense{Entry: e})
	added := tr.After.Expenses[len(tr.After.Expenses)-1]
	if err := s.commit(ctx, tr, added.ID); err != nil {
		return core.Entry{}, err
	}
	return added, nil
}

// UpdateEntry replaces entry id with the validated candidate and closes
// edit mode.
func (s *BudgetService) UpdateEntry(ctx context.Context, id string, c core.Candidate) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, id, c)
}

func (s *BudgetService) updateLocked(ctx context.Context, id string, c core.Candidate) (core.Entry, error) {
	if _, ok := s.store.State().Entry(id); !ok {
		return core.Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	e, err := s.validator.ValidateCandidate(c)
	if err != nil {
		return core.Entry{}, err
	}
	e.ID = id

	tr := s.store.Dispatch(state.UpdateExpense{Entry: e})
	if err := s.commit(ctx, tr, id); err != nil {
		return core.Entry{}, err
	}
	updated, _ := tr.After.Entry(id)
	return updated, nil
}

// SubmitEntry is the form submit: it updates the entry under edit when one
// is open and adds a new entry otherwise. updated reports which happened.
func (s *BudgetService) SubmitEntry(ctx context.Context, c core.Candidate) (e core.Entry, updated bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if editing, ok := s.store.State().Editing(); ok {
		e, err = s.updateLocked(ctx, editing.ID, c)
		return e, true, err
	}
	e, err = s.addLocked(ctx, c)
	return e, false, err
}

func (s *BudgetService) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.State().Entry(id); !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	tr := s.store.Dispatch(state.DeleteExpense{ID: id})
	return s.commit(ctx, tr, id)
}

// StartEditing opens entry id for edit and returns it for form prefill.
func (s *BudgetService) StartEditing(ctx context.Context, id string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.store.State().Entry(id)
	if !ok {
		return core.Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	tr := s.store.Dispatch(state.GetExpenseByID{ID: id})
	if err := s.commit(ctx, tr, id); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

func (s *BudgetService) StopEditing(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr := s.store.Dispatch(state.RemoveEditingID{})
	return s.commit(ctx, tr, tr.Before.EditingID)
}

// SetCategoryFilter restricts the visible entries to one category. An empty
// category clears the filter.
func (s *BudgetService) SetCategoryFilter(ctx context.Context, category string) error {
	id := core.CategoryID(strings.TrimSpace(category))
	if id != "" {
		if _, ok := s.catalog.Category(id); !ok {
			return &core.UnknownReferenceError{Field: core.FieldCategory, Value: string(id)}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tr := s.store.Dispatch(state.SetActiveCategory{Category: id})
	return s.commit(ctx, tr, "")
}

// Restart discards the budget and every entry.
func (s *BudgetService) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr := s.store.Dispatch(state.RestartApp{})
	return s.commit(ctx, tr, "")
}

// commit persists the new state and announces the change. A failed save is
// returned to the caller; the in-memory state keeps the transition. A failed
// publish is only logged.
func (s *BudgetService) commit(ctx context.Context, tr state.Transition, entryID string) error {
	action := string(tr.Action.Kind())

	if s.saver != nil {
		if err := s.saver.Save(ctx, tr.After); err != nil {
			applog.NewStructuredLogger(s.logger).LogError(ctx, "Failed to save budget state", err,
				applog.ComponentStorage, applog.OpSave,
				applog.NewFields().WithAction(action).WithErrorType(applog.ErrorTypeDatabase))
			return fmt.Errorf("save state: %w", err)
		}
	}

	applog.NewStructuredLogger(s.logger).LogTransition(ctx, action, entryID, len(tr.After.Expenses))

	if s.events != nil {
		if err := s.events.PublishBudgetEvent(ctx, amqp.NewBudgetEvent(action, entryID)); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish budget event",
				applog.FieldOperation, applog.OpPublish,
				applog.FieldAction, action,
				applog.FieldEntryID, entryID,
				applog.FieldError, err)
		}
	}

	return nil
}
