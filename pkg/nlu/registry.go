package nlu

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound indicates the requested provider is not registered.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrFactoryNotFound indicates no factory is registered for the provider.
	ErrFactoryNotFound = errors.New("provider factory not found")
)

// ProviderFactory creates a new Provider instance from its activation
// configuration and credentials.
type ProviderFactory func(cfg ProviderConfig, creds Credentials) (Provider, error)

// defaultRegistry backs the package-level registration functions used by
// provider packages at import time.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide provider registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// RegisterFactory registers a factory with the default registry.
func RegisterFactory(name string, factory ProviderFactory) {
	defaultRegistry.RegisterFactory(name, factory)
}

// Activate activates a provider in the default registry.
func Activate(cfg ProviderConfig, creds Credentials) error {
	return defaultRegistry.Activate(cfg, creds)
}

// Registry manages registered NLU providers.
// It supports a two-phase initialization pattern:
//  1. Factory registration (at import time via init())
//  2. Provider activation (at startup based on config)
//
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
	providers map[string]Provider
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
		providers: make(map[string]Provider),
	}
}

// RegisterFactory registers a provider factory function.
// Registering the same name twice overwrites the previous factory (idempotent).
func (r *Registry) RegisterFactory(name string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Activate instantiates a provider from its registered factory.
// Already-activated providers are a no-op.
func (r *Registry) Activate(cfg ProviderConfig, creds Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, exists := r.factories[cfg.Name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrFactoryNotFound, cfg.Name)
	}

	if _, exists := r.providers[cfg.Name]; exists {
		return nil
	}

	provider, err := factory(cfg, creds)
	if err != nil {
		return fmt.Errorf("failed to activate provider %s: %w", cfg.Name, err)
	}

	r.providers[cfg.Name] = provider
	return nil
}

// Get returns an activated provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return provider, nil
}

// ListFactories returns the names of all registered factories, sorted.
func (r *Registry) ListFactories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active returns all activated providers sorted by ascending unit cost.
// Ties are broken by name so the chain order is deterministic.
func (r *Registry) Active() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool {
		if providers[i].UnitCost() != providers[j].UnitCost() {
			return providers[i].UnitCost() < providers[j].UnitCost()
		}
		return providers[i].Name() < providers[j].Name()
	})
	return providers
}
