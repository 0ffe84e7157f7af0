package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MikeSquared-Agency/callboard/internal/audit"
	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// ActorHeader carries the ID of the user performing a mutation.
const ActorHeader = "X-User-ID"

type Server struct {
	store   store.DataStore
	batcher *audit.Batcher
	router  chi.Router
	port    int
}

// NewServer wires the routes. A nil limiter disables rate limiting.
func NewServer(s store.DataStore, b *audit.Batcher, port int, limiter *rate.Limiter) *Server {
	srv := &Server{
		store:   s,
		batcher: b,
		port:    port,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	if limiter != nil {
		r.Use(rateLimit(limiter))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", srv.handleHealth)

		r.Route("/departments", func(r chi.Router) {
			r.Get("/", srv.handleListDepartments)
			r.Post("/", srv.handleCreateDepartment)
			r.Get("/{id}", srv.handleGetDepartment)
			r.Put("/{id}", srv.handleUpdateDepartment)
			r.Delete("/{id}", srv.handleDeleteDepartment)
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", srv.handleListUsers)
			r.Post("/", srv.handleCreateUser)
			r.Get("/{id}", srv.handleGetUser)
			r.Put("/{id}", srv.handleUpdateUser)
			r.Delete("/{id}", srv.handleDeleteUser)
		})
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", srv.handleListClients)
			r.Post("/", srv.handleCreateClient)
			r.Get("/{id}", srv.handleGetClient)
			r.Put("/{id}", srv.handleUpdateClient)
			r.Delete("/{id}", srv.handleDeleteClient)
		})
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", srv.handleListProjects)
			r.Post("/", srv.handleCreateProject)
			r.Get("/{id}", srv.handleGetProject)
			r.Put("/{id}", srv.handleUpdateProject)
			r.Delete("/{id}", srv.handleDeleteProject)
		})
		r.Route("/calls", func(r chi.Router) {
			r.Get("/", srv.handleListCalls)
			r.Post("/", srv.handleCreateCall)
			r.Get("/history", srv.handleCallHistory)
			r.Get("/{id}", srv.handleGetCall)
			r.Put("/{id}", srv.handleUpdateCall)
			r.Delete("/{id}", srv.handleDeleteCall)
			r.Get("/{id}/transcript", srv.handleCallTranscript)
			r.Put("/{id}/analysis", srv.handleSetCallAnalysis)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/", srv.handleListReports)
			r.Post("/", srv.handleCreateReport)
			r.Get("/{id}", srv.handleGetReport)
			r.Put("/{id}", srv.handleUpdateReport)
			r.Delete("/{id}", srv.handleDeleteReport)
		})
		r.Get("/audit-logs", srv.handleListAuditLogs)
	})

	srv.router = r
	return srv
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP API", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("shutting down HTTP API")
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		slog.Warn("health check: database unreachable", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":      status,
		"service":     "callboard",
		"buffer_size": s.batcher.BufferLen(),
	})
}

// record enqueues an audit entry for a successful mutation.
func (s *Server) record(r *http.Request, entity, entityID, action string, meta map[string]any) {
	s.batcher.Record(events.New(r.Header.Get(ActorHeader), entity, entityID, action, meta))
}

func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// httpError is an error with a client-facing status and message.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func notFound(entity string) error {
	return &httpError{status: http.StatusNotFound, msg: entity + " not found"}
}

// writeError maps err to a status code. Unexpected errors are logged and
// hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var he *httpError
	switch {
	case errors.As(err, &he):
		writeJSON(w, he.status, map[string]string{"error": he.msg})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "conflicts with existing data"})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// lookupErr converts a store not-found into a client-facing 404 for entity.
func lookupErr(entity string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(entity)
	}
	return err
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON body")
	}
	return nil
}

func queryLimit(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
