package http

import (
	"net/http"

	applog "presupuesto/internal/log"
)

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	c := s.svc.Catalog()
	writeJSON(w, r, http.StatusOK, catalogJSON{
		Types:      c.ListTypes(),
		Categories: c.ListCategories(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, toStateJSON(s.svc.View()))
}

// parseBody parses the request body, answering 400 on failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Unreadable request body",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeValidation)
		writeError(w, r, http.StatusBadRequest, "Formato de solicitud no válido")
		return nil, false
	}
	return p, true
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if _, err := s.svc.SetBudget(r.Context(), p.Get("amount")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStateJSON(s.svc.View()))
}

// handleSubmitEntry adds an entry, or updates the entry under edit.
func (s *Server) handleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	e, updated, err := s.svc.SubmitEntry(r.Context(), candidateFrom(p))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if updated {
		status = http.StatusOK
	}
	writeJSON(w, r, status, toEntryJSON(e))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	e, err := s.svc.UpdateEntry(r.Context(), r.PathValue("id"), candidateFrom(p))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEntryJSON(e))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartEditing(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.StartEditing(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEntryJSON(e))
}

func (s *Server) handleStopEditing(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.StopEditing(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if err := s.svc.SetCategoryFilter(r.Context(), p.Get("category")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStateJSON(s.svc.View()))
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Restart(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStateJSON(s.svc.View()))
}
