package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/chatgate/internal/auth"
	"github.com/mandalnilabja/chatgate/internal/config"
	"github.com/mandalnilabja/chatgate/internal/provider"
	"github.com/mandalnilabja/chatgate/internal/proxy"
	"github.com/mandalnilabja/chatgate/internal/storage"
)

// countingHandler wraps an upstream handler and counts calls.
type countingHandler struct {
	calls   atomic.Int64
	handler http.HandlerFunc
}

func (c *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.calls.Add(1)
	if c.handler != nil {
		c.handler(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// testEnv wires a Repo against a temp database and a counting upstream.
type testEnv struct {
	repo     *Repo
	store    storage.Storage
	upstream *countingHandler
	alice    *storage.User
	cache    *ristretto.Cache[string, *auth.CachedSession]
}

// newTestEnv builds the full handler stack. alice has session token
// "abc"; the upstream accepts key "cg_test_key".
func newTestEnv(t *testing.T, upstreamFn http.HandlerFunc) *testEnv {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "chatgate-handler-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.RemoveAll(tmpDir)
	})

	hash, err := storage.HashPassword("alicepassword", nil)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	alice := &storage.User{Username: "alice", Role: "admin", PasswordHash: hash}
	if err := store.CreateUser(alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := store.UpdateSession(alice.ID, "abc", time.Now()); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	upstream := &countingHandler{handler: upstreamFn}
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	providers := []config.ProviderConfig{
		{
			ID:              "openai",
			BaseURL:         server.URL,
			APIKey:          "sk-upstream",
			ClientKeyPrefix: "cg_",
			ClientKeys:      []string{"cg_test_key"},
		},
	}

	registry, err := provider.NewRegistry(providers)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *auth.CachedSession]{
		NumCounters: 1000,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		t.Fatalf("failed to create session cache: %v", err)
	}
	t.Cleanup(cache.Close)

	validator := auth.NewValidator(store, providers, cache, nil)
	repo := NewRepo(nil, store, validator, registry, proxy.NewForwarder(nil), nil)

	return &testEnv{repo: repo, store: store, upstream: upstream, alice: alice, cache: cache}
}

// proxyRequest builds a request routed to the Providers dispatcher,
// with path values set the way the mux pattern would.
func proxyRequest(method, providerID, subpath string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, "/providers/"+providerID+"/"+subpath, body)
	req.SetPathValue("provider", providerID)
	req.SetPathValue("subpath", subpath)
	return req
}
