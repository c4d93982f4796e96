// Package server owns the HTTP listener and the shared middleware
// stack.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	Router *chi.Mux
	Port   int

	logger *slog.Logger
	http   *http.Server
}

// New builds the router with the standard middleware stack. The
// request timeout must leave room for a full backend exchange, so the
// caller derives it from the backend timeout.
func New(port int, requestTimeout time.Duration, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(requestTimeout))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "rag-helper-bot")
	})

	return &Server{
		Router: r,
		Port:   port,
		logger: logger,
		http: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		},
	}
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
