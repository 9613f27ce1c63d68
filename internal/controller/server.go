// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"autodb/internal/config"
	"autodb/internal/controller/handlers"
	"autodb/internal/controller/middleware"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new controller server. metricsHandler may be nil.
func New(addr string, engine handlers.Engine, cfg *config.Config, metricsHandler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	h := handlers.New(engine, cfg.Services, logger)
	rateMW := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitBurst,
		middleware.WithTrustedProxies(cfg.TrustedProxies...),
	).Middleware()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Intake is the only endpoint open to anonymous bursts.
	mux.Handle("POST /api/{service}/requests", rateMW(http.HandlerFunc(h.SubmitRequest)))
	mux.HandleFunc("GET /api/{service}/requests", h.ListRequests)
	mux.HandleFunc("POST /api/{service}/requests/{id}/done", h.CompleteRequest)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      middleware.RequestID(middleware.Logging(logger)(mux)),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		s.logger.Info("controller listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
