// Package handler contains the HTTP handlers: session and login
// endpoints, admin user lookup, notification retrieval, and the
// provider proxy dispatcher.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mandalnilabja/chatgate/internal/auth"
	"github.com/mandalnilabja/chatgate/internal/provider"
	"github.com/mandalnilabja/chatgate/internal/proxy"
	"github.com/mandalnilabja/chatgate/internal/storage"
	"github.com/mandalnilabja/chatgate/internal/tokenizer"
	"github.com/mandalnilabja/chatgate/internal/transport/http/middleware/ratelimit"
	"github.com/mandalnilabja/chatgate/internal/types"
)

// Repo holds the dependencies for HTTP handlers.
type Repo struct {
	Logger    *slog.Logger
	Storage   storage.Storage
	Validator *auth.Validator
	Registry  *provider.Registry
	Forwarder *proxy.Forwarder
	Tokenizer tokenizer.Tokenizer
	Limiter   *ratelimit.Limiter

	// RateLimit is the per-identity requests/minute cap on proxy
	// routes. 0 disables limiting.
	RateLimit int
}

// NewRepo creates a new instance of the handler repository.
func NewRepo(logger *slog.Logger, store storage.Storage, validator *auth.Validator, registry *provider.Registry, forwarder *proxy.Forwarder, tok tokenizer.Tokenizer) *Repo {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repo{
		Logger:    logger,
		Storage:   store,
		Validator: validator,
		Registry:  registry,
		Forwarder: forwarder,
		Tokenizer: tok,
		Limiter:   ratelimit.New(),
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeUnauthorized writes the uniform 401 envelope. Every credential
// failure uses the same message so rejection causes are not
// distinguishable from outside.
func writeUnauthorized(w http.ResponseWriter) {
	types.WriteError(w, http.StatusUnauthorized, types.ErrAuthentication("invalid credentials"))
}
