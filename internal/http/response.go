package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"presupuesto/internal/core"
	applog "presupuesto/internal/log"
	"presupuesto/internal/services"
)

type entryJSON struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	ExpenseName string `json:"expense_name"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date"`
	Icon        string `json:"icon"`
}

type summaryJSON struct {
	TotalExpenses   string  `json:"total_expenses"`
	TotalIncomes    string  `json:"total_incomes"`
	Available       string  `json:"available"`
	UsagePercentage float64 `json:"usage_percentage"`
	Tier            string  `json:"tier"`
	Color           string  `json:"color"`
}

type stateJSON struct {
	Budget         string      `json:"budget"`
	Configured     bool        `json:"configured"`
	Entries        []entryJSON `json:"entries"`
	Visible        []entryJSON `json:"visible"`
	EditingID      string      `json:"editing_id,omitempty"`
	Editing        *entryJSON  `json:"editing,omitempty"`
	ActiveCategory string      `json:"active_category,omitempty"`
	Summary        summaryJSON `json:"summary"`
}

type catalogJSON struct {
	Types      []core.TypeInfo `json:"types"`
	Categories []core.Category `json:"categories"`
}

type errorJSON struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func toEntryJSON(e core.Entry) entryJSON {
	return entryJSON{
		ID:          e.ID,
		Type:        string(e.Type),
		ExpenseName: e.ExpenseName,
		Amount:      e.Amount.String(),
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Date:        e.Date.String(),
		Icon:        e.Icon,
	}
}

func toEntriesJSON(entries []core.Entry) []entryJSON {
	out := make([]entryJSON, len(entries))
	for i, e := range entries {
		out[i] = toEntryJSON(e)
	}
	return out
}

func toStateJSON(v services.View) stateJSON {
	out := stateJSON{
		Budget:         v.State.Budget.String(),
		Configured:     v.State.IsConfigured(),
		Entries:        toEntriesJSON(v.State.Expenses),
		Visible:        toEntriesJSON(v.Visible),
		EditingID:      v.State.EditingID,
		ActiveCategory: string(v.State.ActiveCategory),
		Summary: summaryJSON{
			TotalExpenses:   v.Summary.TotalExpenses.String(),
			TotalIncomes:    v.Summary.TotalIncomes.String(),
			Available:       v.Summary.Available.String(),
			UsagePercentage: v.Summary.UsagePercentage,
			Tier:            v.Tier.String(),
			Color:           v.Tier.Color(),
		},
	}
	if v.Editing != nil {
		e := toEntryJSON(*v.Editing)
		out.Editing = &e
	}
	return out
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to write response", applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorJSON{Error: message})
}

// writeServiceError maps service and validation errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var missing *core.MissingFieldError
	switch {
	case errors.Is(err, services.ErrInvalidBudget):
		logRejected(r, err, applog.ErrorTypeValidation)
		writeError(w, r, http.StatusUnprocessableEntity, "El presupuesto no es válido")
	case errors.As(err, &missing):
		logRejected(r, err, applog.ErrorTypeValidation)
		writeJSON(w, r, http.StatusUnprocessableEntity, errorJSON{Error: core.UserMessage(err), Field: missing.Field})
	case core.IsValidationError(err):
		logRejected(r, err, applog.ErrorTypeValidation)
		writeError(w, r, http.StatusUnprocessableEntity, core.UserMessage(err))
	case errors.Is(err, services.ErrEntryNotFound):
		logRejected(r, err, applog.ErrorTypeNotFound)
		writeError(w, r, http.StatusNotFound, "El gasto no existe")
	case errors.Is(err, services.ErrBudgetAlreadySet):
		logRejected(r, err, applog.ErrorTypeConflict)
		writeError(w, r, http.StatusConflict, "El presupuesto ya está definido")
	default:
		logger.ErrorContext(ctx, "Request failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeInternal)
		writeError(w, r, http.StatusInternalServerError, "Error interno del servidor")
	}
}

// logRejected records a request refused for a client side reason.
func logRejected(r *http.Request, err error, errorType string) {
	ctx := r.Context()
	op := applog.OpSave
	if errorType == applog.ErrorTypeValidation {
		op = applog.OpValidate
	}
	applog.FromContext(ctx).InfoContext(ctx, "Request rejected",
		applog.FieldOperation, op,
		applog.FieldErrorType, errorType,
		applog.FieldError, err)
}
