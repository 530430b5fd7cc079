package provider

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/mandalnilabja/chatgate/internal/config"
)

func testProviders() []config.ProviderConfig {
	return []config.ProviderConfig{
		{
			ID:      "openai",
			BaseURL: "https://api.openai.com",
			APIKey:  "sk-upstream",
		},
		{
			ID:         "azure",
			BaseURL:    "https://my-resource.openai.azure.com",
			APIKey:     "azure-secret",
			AuthScheme: "header",
			AuthHeader: "api-key",
			PathPrefix: "/openai/deployments/gpt-4o",
			Query:      map[string]string{"api-version": "2024-06-01"},
		},
	}
}

func TestRegistryResolve(t *testing.T) {
	reg, err := NewRegistry(testProviders())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	target, err := reg.Resolve("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.ID != "openai" {
		t.Errorf("expected target 'openai', got %q", target.ID)
	}

	if _, err := reg.Resolve("foo"); err != ErrProviderNotFound {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestRegistryIDs(t *testing.T) {
	reg, err := NewRegistry(testProviders())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	ids := reg.IDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["openai"] || !seen["azure"] {
		t.Errorf("expected openai and azure, got %v", ids)
	}
}

func TestRegistryRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name      string
		providers []config.ProviderConfig
	}{
		{"missing id", []config.ProviderConfig{{BaseURL: "https://x.test"}}},
		{"invalid base url", []config.ProviderConfig{{ID: "a", BaseURL: "not a url"}}},
		{"unknown auth scheme", []config.ProviderConfig{{ID: "a", BaseURL: "https://x.test", AuthScheme: "magic"}}},
		{"header scheme without header name", []config.ProviderConfig{{ID: "a", BaseURL: "https://x.test", AuthScheme: "header"}}},
		{"duplicate ids", []config.ProviderConfig{
			{ID: "a", BaseURL: "https://x.test"},
			{ID: "a", BaseURL: "https://y.test"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.providers); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestUpstreamURL(t *testing.T) {
	reg, err := NewRegistry(testProviders())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	t.Run("plain subpath", func(t *testing.T) {
		target, _ := reg.Resolve("openai")
		got := target.UpstreamURL("v1/chat/completions", nil)
		want := "https://api.openai.com/v1/chat/completions"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("path prefix and static query", func(t *testing.T) {
		target, _ := reg.Resolve("azure")
		got := target.UpstreamURL("chat/completions", nil)
		want := "https://my-resource.openai.azure.com/openai/deployments/gpt-4o/chat/completions?api-version=2024-06-01"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("inbound query preserved", func(t *testing.T) {
		target, _ := reg.Resolve("openai")
		got := target.UpstreamURL("v1/models", url.Values{"limit": {"5"}})
		want := "https://api.openai.com/v1/models?limit=5"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestApplyHeaders(t *testing.T) {
	reg, err := NewRegistry(testProviders())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	src := http.Header{}
	src.Set("Content-Type", "application/json")
	src.Set("Authorization", "Bearer caller-session-key")
	src.Set("X-User-Info", `{"userId":1,"sessionToken":"abc"}`)
	src.Set("Connection", "keep-alive")
	src.Set("Accept", "text/event-stream")

	t.Run("bearer injection", func(t *testing.T) {
		target, _ := reg.Resolve("openai")
		dst := http.Header{}
		target.ApplyHeaders(dst, src)

		if got := dst.Get("Authorization"); got != "Bearer sk-upstream" {
			t.Errorf("expected upstream key, got %q", got)
		}
		if dst.Get("X-User-Info") != "" {
			t.Error("session header must not be forwarded upstream")
		}
		if dst.Get("Connection") != "" {
			t.Error("hop-by-hop header must not be forwarded")
		}
		if got := dst.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected content type preserved, got %q", got)
		}
		if got := dst.Get("Accept"); got != "text/event-stream" {
			t.Errorf("expected accept preserved, got %q", got)
		}
	})

	t.Run("custom header injection", func(t *testing.T) {
		target, _ := reg.Resolve("azure")
		dst := http.Header{}
		target.ApplyHeaders(dst, src)

		if got := dst.Get("api-key"); got != "azure-secret" {
			t.Errorf("expected api-key header, got %q", got)
		}
		if dst.Get("Authorization") != "" {
			t.Error("caller authorization must be stripped for header-auth providers")
		}
	})
}
