package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/grizzdank/vozctl/pkg/provider/slm"
)

// ErrProviderNotRegistered is returned by [Registry.CreateSLM] when no
// factory has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps remote-model provider names to their constructor functions.
// It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	slm map[string]func(SLMConfig) (slm.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		slm: make(map[string]func(SLMConfig) (slm.Provider, error)),
	}
}

// RegisterSLM registers a remote-model provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterSLM(name string, factory func(SLMConfig) (slm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slm[name] = factory
}

// CreateSLM constructs the remote-model provider selected by cfg. A
// disabled config returns [slm.Disabled] rather than an error, so callers
// can wire the result unconditionally.
func (r *Registry) CreateSLM(cfg SLMConfig) (slm.Provider, error) {
	if !cfg.Enabled() {
		return slm.Disabled{}, nil
	}
	r.mu.RLock()
	factory, ok := r.slm[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: slm provider %q", ErrProviderNotRegistered, cfg.Provider)
	}
	p, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: create slm provider %q: %w", cfg.Provider, err)
	}
	return p, nil
}
