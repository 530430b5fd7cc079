package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mandalnilabja/chatgate/internal/config"
)

// Server wraps the HTTP server with its configuration
type Server struct {
	httpServer *http.Server
	config     *config.Config
	logger     *slog.Logger
}

// NewServer creates a new configured HTTP server instance
func NewServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) *Server {
	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: handler,
		// IMPORTANT: ReadTimeout can kill long streams!
		// For LLM streaming responses, we need generous timeouts
		ReadTimeout:  300 * time.Second,
		WriteTimeout: 300 * time.Second,
	}

	return &Server{
		httpServer: srv,
		config:     cfg,
		logger:     logger,
	}
}

// Start begins listening and serving HTTP requests
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.config.ServerPort)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server gracefully, waiting for in-flight requests
// (including open streams) up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
