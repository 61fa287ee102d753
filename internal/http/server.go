package http

import (
	"context"
	"net/http"
	"time"

	applog "presupuesto/internal/log"
	"presupuesto/internal/middleware/trace"
	"presupuesto/internal/services"
)

type Server struct {
	http.Server
	svc         *services.BudgetService
	logger      *applog.Logger
	rateLimiter *rateLimiter
	tracer      *trace.Middleware
}

func NewServer(addr string, svc *services.BudgetService, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &Server{
		svc:         svc,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(rateLimitRequests, rateLimitWindow),
	}
	s.tracer = trace.NewMiddleware(logger, extractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/state", s.handleState)

	limit := s.rateLimiter.limitHandler
	mux.HandleFunc("POST /api/budget", limit(s.handleSetBudget))
	mux.HandleFunc("POST /api/entries", limit(s.handleSubmitEntry))
	mux.HandleFunc("PUT /api/entries/{id}", limit(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/entries/{id}", limit(s.handleDeleteEntry))
	mux.HandleFunc("POST /api/entries/{id}/edit", limit(s.handleStartEditing))
	mux.HandleFunc("DELETE /api/editing", limit(s.handleStopEditing))
	mux.HandleFunc("PUT /api/filter", limit(s.handleSetFilter))
	mux.HandleFunc("POST /api/restart", limit(s.handleRestart))

	s.Addr = addr
	s.Handler = s.tracer.Middleware(withSecurityHeaders(mux))
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 10 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

// Shutdown stops background work and gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()

	m := s.tracer.GetMetrics()
	s.logger.InfoContext(ctx, "HTTP server shutting down",
		applog.FieldOperation, applog.OpShutdown,
		"total_requests", m.TotalRequests,
		"avg_response_us", m.AverageResponseTime)

	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
