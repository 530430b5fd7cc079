package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mandalnilabja/chatgate/internal/auth"
	"github.com/mandalnilabja/chatgate/internal/proxy"
	"github.com/mandalnilabja/chatgate/internal/storage"
	"github.com/mandalnilabja/chatgate/internal/transport/http/middleware"
	"github.com/mandalnilabja/chatgate/internal/types"
)

// tokenCountTimeout is the maximum time to wait for background token
// counting after the relay finishes.
const tokenCountTimeout = 100 * time.Millisecond

// Providers dispatches /providers/{provider}/{subpath...} requests:
// authenticate, resolve the target, then forward with streaming relay.
// A response is always produced.
func (h *Repo) Providers(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("provider")
	subpath := r.PathValue("subpath")

	// CORS preflight never reaches the registry or the upstream
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusOK, map[string]string{"body": "OK"})
		return
	}

	// Malformed or missing credentials validate as CredentialNone and
	// are rejected; they are never a server error.
	cred, _ := auth.ParseRequest(r)
	decision := h.Validator.Validate(cred, providerID)
	if !decision.Authorized {
		writeUnauthorized(w)
		return
	}

	if h.Limiter != nil && !h.Limiter.Allow(decision.Identity, h.RateLimit) {
		types.WriteError(w, http.StatusTooManyRequests,
			types.NewAPIError("rate limit exceeded", types.ErrorTypeRateLimit))
		return
	}

	target, err := h.Registry.Resolve(providerID)
	if err != nil {
		// Caller-supplied routing, so a client error, not a 5xx
		types.WriteError(w, http.StatusNotFound, types.ErrNotFound("unknown provider: "+providerID))
		return
	}

	requestID := middleware.GetRequestID(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	// Chat completion bodies are buffered for token counting; all
	// other requests stream through untouched.
	var body io.Reader
	var model string
	tokensChan := make(chan int, 1)
	close(tokensChan)

	if isChatCompletion(r.Method, subpath) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("failed to read request body"))
			return
		}
		r.Body.Close()
		body = bytes.NewReader(bodyBytes)

		var chatReq types.ChatCompletionRequest
		if json.Unmarshal(bodyBytes, &chatReq) == nil {
			model = chatReq.Model
			tokensChan = make(chan int, 1)
			go func() {
				defer close(tokensChan)
				if h.Tokenizer != nil {
					if tokens, err := h.Tokenizer.CountRequest(&chatReq); err == nil {
						tokensChan <- tokens
					}
				}
			}()
		}
	}

	result := h.Forwarder.Forward(r.Context(), w, r, target, subpath, body)

	// Collect the background count with a short grace period
	var promptTokens int
	select {
	case tokens, ok := <-tokensChan:
		if ok {
			promptTokens = tokens
		}
	case <-time.After(tokenCountTimeout):
	}

	go h.logProxyRequest(requestID, providerID, subpath, r.Method, model, promptTokens, result)
}

// isChatCompletion reports whether a request is an OpenAI-style chat
// completion call whose body carries model and messages.
func isChatCompletion(method, subpath string) bool {
	return method == http.MethodPost && strings.HasSuffix(subpath, "chat/completions")
}

// logProxyRequest records the forwarded call to storage asynchronously.
func (h *Repo) logProxyRequest(requestID, providerID, subpath, method, model string, promptTokens int, result *proxy.Result) {
	if h.Storage == nil || result == nil {
		return
	}

	log := &storage.RequestLog{
		ID:           uuid.New().String(),
		RequestID:    requestID,
		Provider:     providerID,
		Subpath:      subpath,
		Method:       method,
		Model:        model,
		PromptTokens: promptTokens,
		IsStreaming:  result.IsStreaming,
		StatusCode:   result.StatusCode,
		ErrorMessage: result.Message,
		DurationMs:   result.Duration.Milliseconds(),
		CreatedAt:    time.Now(),
	}

	if err := h.Storage.LogRequest(log); err != nil {
		h.Logger.Warn("failed to log request", "error", err)
	}
}
