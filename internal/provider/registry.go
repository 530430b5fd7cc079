package provider

import (
	"errors"
	"fmt"

	"github.com/mandalnilabja/chatgate/internal/config"
)

// ErrProviderNotFound is returned when a provider ID is not configured.
// It reflects caller-supplied routing, so handlers map it to a client
// error, never a 5xx.
var ErrProviderNotFound = errors.New("provider not found")

// Registry resolves logical provider identifiers to upstream targets.
// Built once at startup and never mutated afterwards, so concurrent
// reads need no locking.
type Registry struct {
	targets map[string]*Target
}

// NewRegistry compiles the configured providers into a Registry.
func NewRegistry(providers []config.ProviderConfig) (*Registry, error) {
	targets := make(map[string]*Target, len(providers))
	for _, p := range providers {
		t, err := newTarget(p)
		if err != nil {
			return nil, err
		}
		if _, exists := targets[t.ID]; exists {
			return nil, fmt.Errorf("duplicate provider id %q", t.ID)
		}
		targets[t.ID] = t
	}
	return &Registry{targets: targets}, nil
}

// Resolve returns the target for a provider ID, or ErrProviderNotFound.
func (r *Registry) Resolve(providerID string) (*Target, error) {
	t, ok := r.targets[providerID]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return t, nil
}

// IDs returns the configured provider identifiers.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.targets))
	for id := range r.targets {
		ids = append(ids, id)
	}
	return ids
}
