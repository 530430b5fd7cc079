package app

import (
	"log/slog"
	"net/http"

	"github.com/mandalnilabja/chatgate/internal/transport/http/handler"
	"github.com/mandalnilabja/chatgate/internal/transport/http/middleware"
)

// NewRouter creates and configures the HTTP router with all application
// routes. Returns an http.Handler with middleware applied.
func NewRouter(repo *handler.Repo, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /api/health", repo.HealthCheck)
	mux.HandleFunc("POST /auth/check", repo.AuthCheck)
	mux.HandleFunc("POST /auth/login", repo.Login)

	// Admin and debug lookups
	mux.HandleFunc("GET /admin/current-user", repo.CurrentUser)
	mux.HandleFunc("GET /debug/notifications", repo.DebugNotifications)

	// Provider proxy: any method, auth enforced inside the dispatcher
	// (OPTIONS must short-circuit before it).
	mux.HandleFunc("/providers/{provider}/{subpath...}", repo.Providers)

	// Apply middleware chain (order: outer to inner)
	var h http.Handler = mux

	h = middleware.Recover(logger)(h)

	if logger != nil {
		h = middleware.RequestLogger(logger)(h)
	}

	// Request ID (always applied)
	h = middleware.RequestID(h)

	// CORS (always applied)
	h = middleware.CORS(h)

	return h
}
