package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"presupuesto/internal/core"
	applog "presupuesto/internal/log"
	"presupuesto/internal/persistence/memory"
	"presupuesto/internal/services"
	"presupuesto/internal/state"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := applog.New(applog.Config{Output: io.Discard})
	store := state.NewStore(state.Initial(), nil)
	svc := services.NewBudgetService(store, core.DefaultCatalog(),
		services.WithSaver(memory.New()),
		services.WithLogger(logger))
	srv := NewServer(":0", svc, logger)
	t.Cleanup(srv.rateLimiter.stop)
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s missing X-Request-ID", path)
		}
	}
}

func TestCatalog(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/api/catalog", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	c := decode[catalogJSON](t, rr)
	if len(c.Types) != 2 || len(c.Categories) != 5 {
		t.Errorf("unexpected catalog %+v", c)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestBudgetFlow(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/budget", `{"amount": "abc"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid budget status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/budget", "amount=1000")
	if rr.Code != http.StatusOK {
		t.Fatalf("set budget status=%d body=%s", rr.Code, rr.Body.String())
	}
	st := decode[stateJSON](t, rr)
	if !st.Configured || st.Budget != "1000.00" {
		t.Errorf("unexpected state %+v", st)
	}

	rr = do(t, srv, http.MethodPost, "/api/budget", `{"amount": 5}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("second budget status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/entries",
		`{"type": "1", "expense_name": "Groceries", "amount": "800", "category": "1", "date": "2024-05-02"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add entry status=%d body=%s", rr.Code, rr.Body.String())
	}
	e := decode[entryJSON](t, rr)
	if e.ID == "" || e.Icon != "comida" || e.AmountCents != 80000 {
		t.Errorf("unexpected entry %+v", e)
	}

	rr = do(t, srv, http.MethodGet, "/api/state", "")
	st = decode[stateJSON](t, rr)
	if st.Summary.UsagePercentage != 80 || st.Summary.Tier != "high" || st.Summary.Color != "#e5053a" {
		t.Errorf("unexpected summary %+v", st.Summary)
	}
	if st.Summary.Available != "200.00" {
		t.Errorf("available = %s, want 200.00", st.Summary.Available)
	}

	rr = do(t, srv, http.MethodPost, "/api/restart", "")
	st = decode[stateJSON](t, rr)
	if rr.Code != http.StatusOK || st.Configured || len(st.Entries) != 0 {
		t.Errorf("restart left state %+v", st)
	}
}

func TestSubmitValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		code    int
		field   string
		message string
	}{
		{"missing name", "type=1&amount=10&category=1&date=2024-01-01", http.StatusUnprocessableEntity, "expenseName", "Todos los campos son obligatorios"},
		{"bad date", "type=1&expense_name=x&amount=10&category=1&date=2024-13-01", http.StatusUnprocessableEntity, "date", ""},
		{"overflowing day", "type=1&expense_name=x&amount=10&category=1&year=2024&month=2&day=31", http.StatusUnprocessableEntity, "date", ""},
		{"bad amount", "type=1&expense_name=x&amount=1.2.3&category=1&date=2024-01-01", http.StatusUnprocessableEntity, "", "La cantidad no es válida."},
		{"amount over the cap", "type=1&expense_name=x&amount=92233720368547757&category=1&date=2024-01-01", http.StatusUnprocessableEntity, "", "La cantidad no es válida."},
		{"unknown category", "type=1&expense_name=x&amount=10&category=42&date=2024-01-01", http.StatusUnprocessableEntity, "", ""},
		{"broken json", `{"type": `, http.StatusBadRequest, "", ""},
		{"income without category", "type=2&expense_name=Salary&amount=10&year=2024&month=2&day=29", http.StatusCreated, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/entries", tt.body)
			if rr.Code != tt.code {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.code, rr.Body.String())
			}
			if tt.field == "" && tt.message == "" {
				return
			}
			got := decode[errorJSON](t, rr)
			if tt.field != "" && got.Field != tt.field {
				t.Errorf("field = %q, want %q", got.Field, tt.field)
			}
			if tt.message != "" && got.Error != tt.message {
				t.Errorf("error = %q, want %q", got.Error, tt.message)
			}
		})
	}
}

func TestEditAndDelete(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/entries", "type=1&expense_name=Rent&amount=700&category=2&date=2024-05-01")
	e := decode[entryJSON](t, rr)

	rr = do(t, srv, http.MethodPost, "/api/entries/"+e.ID+"/edit", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("edit status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/state", "")
	if st := decode[stateJSON](t, rr); st.Editing == nil || st.Editing.ExpenseName != "Rent" {
		t.Fatalf("editing not exposed: %+v", st)
	}

	// Submitting the form while editing updates in place.
	rr = do(t, srv, http.MethodPost, "/api/entries", "type=1&expense_name=Rent&amount=650&category=2&date=2024-05-01")
	if rr.Code != http.StatusOK {
		t.Fatalf("submit while editing status=%d", rr.Code)
	}
	if got := decode[entryJSON](t, rr); got.ID != e.ID || got.Amount != "650.00" {
		t.Errorf("unexpected update %+v", got)
	}

	rr = do(t, srv, http.MethodPut, "/api/entries/"+e.ID, `{"type": "1", "expense_name": "Rent", "amount": "600", "category": "2", "date": "2024-05-01"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/editing", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("stop editing status=%d", rr.Code)
	}

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/entries/nope/edit"},
		{http.MethodDelete, "/api/entries/nope"},
		{http.MethodPut, "/api/entries/nope"},
	} {
		rr = do(t, srv, tc.method, tc.path, "type=1&expense_name=x&amount=1&category=1&date=2024-01-01")
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s status=%d, want 404", tc.method, tc.path, rr.Code)
		}
	}

	rr = do(t, srv, http.MethodDelete, "/api/entries/"+e.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/state", "")
	if st := decode[stateJSON](t, rr); len(st.Entries) != 0 {
		t.Errorf("entry not deleted: %+v", st.Entries)
	}
}

func TestFilter(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/entries", "type=1&expense_name=Bread&amount=2&category=1&date=2024-05-01")
	do(t, srv, http.MethodPost, "/api/entries", "type=1&expense_name=Cinema&amount=9&category=4&date=2024-05-01")

	rr := do(t, srv, http.MethodPut, "/api/filter", `{"category": "4"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("filter status=%d", rr.Code)
	}
	st := decode[stateJSON](t, rr)
	if len(st.Visible) != 1 || len(st.Entries) != 2 || st.Summary.TotalExpenses != "11.00" {
		t.Errorf("unexpected filtered state %+v", st)
	}

	rr = do(t, srv, http.MethodPut, "/api/filter", `{"category": "9"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown filter status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPut, "/api/filter", `{"category": ""}`)
	if st := decode[stateJSON](t, rr); len(st.Visible) != 2 || st.ActiveCategory != "" {
		t.Errorf("filter not cleared: %+v", st)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/api/budget", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status=%d, want 405", rr.Code)
	}
}
