// Package api serves the coaching data over a loopback JSON API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/services"
)

const shutdownTimeout = 10 * time.Second

// Server is the loopback HTTP server.
type Server struct {
	manager *services.Manager
	router  *mux.Router
	server  *http.Server
}

// NewServer creates a server bound to addr. Nothing listens until
// ListenAndServe is called.
func NewServer(addr string, manager *services.Manager) *Server {
	s := &Server{
		manager: manager,
		router:  mux.NewRouter(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(loggingMiddleware)

	h := &handlers{manager: s.manager}

	s.router.HandleFunc("/api/health", h.Health).Methods("GET")

	s.router.HandleFunc("/api/budget", h.Budget).Methods("GET")
	s.router.HandleFunc("/api/usage/monthly", h.MonthlyUsage).Methods("GET")

	s.router.HandleFunc("/api/activity/today", h.TodayActivity).Methods("GET")
	s.router.HandleFunc("/api/activity/apps", h.AppActivity).Methods("GET")
	s.router.HandleFunc("/api/activity/apps/{app}/score", h.SetAppScore).Methods("PUT")

	s.router.HandleFunc("/api/feedback", h.ListFeedback).Methods("GET")
	s.router.HandleFunc("/api/feedback", h.CreateFeedback).Methods("POST")
	s.router.HandleFunc("/api/feedback/{id}/rating", h.RateFeedback).Methods("PUT")

	s.router.HandleFunc("/api/llm/generate", h.Generate).Methods("POST")
	s.router.HandleFunc("/api/llm/models", h.LocalModels).Methods("GET")

	s.router.HandleFunc("/api/settings", h.ListSettings).Methods("GET")
	s.router.HandleFunc("/api/settings/{key}", h.UpdateSetting).Methods("PUT")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	logger.Info("api server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	logger.Info("stopping api server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		logger.Debug("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
