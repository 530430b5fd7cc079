// Package provider maps logical provider identifiers to upstream
// targets: base address, auth placement, path rewriting and header
// rules. Pure lookup, no I/O.
package provider

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mandalnilabja/chatgate/internal/config"
)

// Auth placement schemes.
const (
	AuthSchemeBearer = "bearer"
	AuthSchemeHeader = "header"
	AuthSchemeQuery  = "query"
)

// hopByHopHeaders must not be forwarded upstream. The caller's own
// credentials (Authorization, X-User-Info) are stripped alongside them
// so session tokens never leave the gateway.
var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Content-Length":      true,
	"Host":                true,
	"Authorization":       true,
	"X-User-Info":         true,
}

// Target is the resolved upstream address and wire rules for one
// provider. Immutable after startup; safe for unsynchronized
// concurrent reads.
type Target struct {
	ID      string
	BaseURL *url.URL

	apiKey       string
	authScheme   string
	authHeader   string
	pathPrefix   string
	staticQuery  map[string]string
	extraHeaders map[string]string
}

// newTarget compiles one provider declaration.
func newTarget(cfg config.ProviderConfig) (*Target, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("provider missing id")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("provider %q: invalid base_url %q", cfg.ID, cfg.BaseURL)
	}

	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = AuthSchemeBearer
	}
	switch scheme {
	case AuthSchemeBearer:
	case AuthSchemeHeader, AuthSchemeQuery:
		if cfg.AuthHeader == "" {
			return nil, fmt.Errorf("provider %q: auth_scheme %q requires auth_header", cfg.ID, scheme)
		}
	default:
		return nil, fmt.Errorf("provider %q: unknown auth_scheme %q", cfg.ID, scheme)
	}

	return &Target{
		ID:           cfg.ID,
		BaseURL:      base,
		apiKey:       cfg.APIKey,
		authScheme:   scheme,
		authHeader:   cfg.AuthHeader,
		pathPrefix:   strings.TrimSuffix(cfg.PathPrefix, "/"),
		staticQuery:  cfg.Query,
		extraHeaders: cfg.ExtraHeaders,
	}, nil
}

// UpstreamURL builds the full upstream URL for an inbound subpath and
// query, applying the provider's path prefix and static parameters.
func (t *Target) UpstreamURL(subpath string, inboundQuery url.Values) string {
	u := *t.BaseURL

	path := t.pathPrefix
	if subpath != "" {
		path += "/" + strings.TrimPrefix(subpath, "/")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path

	query := url.Values{}
	for k, vs := range inboundQuery {
		query[k] = vs
	}
	for k, v := range t.staticQuery {
		query.Set(k, v)
	}
	if t.authScheme == AuthSchemeQuery && t.apiKey != "" {
		query.Set(t.authHeader, t.apiKey)
	}
	u.RawQuery = query.Encode()

	return u.String()
}

// ApplyHeaders copies inbound headers onto the upstream request,
// stripping hop-by-hop and caller-credential headers, then injects the
// provider's auth and extra headers.
func (t *Target) ApplyHeaders(dst http.Header, src http.Header) {
	for k, vs := range src {
		if hopByHopHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		dst[k] = vs
	}

	for k, v := range t.extraHeaders {
		dst.Set(k, v)
	}

	if t.apiKey == "" {
		return
	}
	switch t.authScheme {
	case AuthSchemeBearer:
		dst.Set("Authorization", "Bearer "+t.apiKey)
	case AuthSchemeHeader:
		dst.Set(t.authHeader, t.apiKey)
	}
	// AuthSchemeQuery is handled in UpstreamURL
}
