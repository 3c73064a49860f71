package injector

import (
	"fmt"
	"slices"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the rules of one component.
//
// Register installs rules and must not resolve anything. Boot runs once all
// eager providers are registered, so it may resolve any key.
//
//	type DatabaseProvider struct{ injector.BaseProvider }
//
//	func (p *DatabaseProvider) Register(inj *injector.Injector) error {
//	    inj.Register("db", "sqlite", injector.Fn(openSQLite, injector.Arg("path")))
//	    return nil
//	}
type ServiceProvider interface {
	Register(inj *Injector) error
	Boot(inj *Injector) error

	// Provides lists the keys a deferred provider registers.
	Provides() []string

	// IsDeferred defers Register until one of Provides is first requested.
	IsDeferred() bool
}

// BaseProvider is embeddable and supplies no-op Boot, Provides and
// IsDeferred.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Injector) error { return nil }
func (p *BaseProvider) Provides() []string     { return nil }
func (p *BaseProvider) IsDeferred() bool       { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders, loading deferred
// ones the first time a key they provide is requested. Its own lock is never
// held while a provider runs.
type ProviderRegistry struct {
	inj *Injector

	mu         sync.Mutex
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to inj.
func NewProviderRegistry(inj *Injector) *ProviderRegistry {
	r := &ProviderRegistry{
		inj:        inj,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
	inj.addLoader(r.loadDeferred)
	return r
}

// Register adds a provider. Eager providers register immediately, and boot
// immediately when the registry has already booted.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, key := range provider.Provides() {
			r.deferred[key] = provider
		}
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	if err := provider.Register(r.inj); err != nil {
		return fmt.Errorf("registering %T: %w", provider, err)
	}

	r.mu.Lock()
	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if booted {
		if err := provider.Boot(r.inj); err != nil {
			return fmt.Errorf("booting %T: %w", provider, err)
		}
	}
	return nil
}

// loadDeferred registers the deferred provider for key, if any, through the
// handle of the running resolution.
func (r *ProviderRegistry) loadDeferred(h *Injector, key string) (bool, error) {
	r.mu.Lock()
	provider, ok := r.deferred[key]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	for _, k := range provider.Provides() {
		delete(r.deferred, k)
	}
	booted := r.booted
	r.mu.Unlock()

	if err := provider.Register(h); err != nil {
		return false, fmt.Errorf("registering deferred %T: %w", provider, err)
	}
	if booted {
		if err := provider.Boot(h); err != nil {
			return false, fmt.Errorf("booting deferred %T: %w", provider, err)
		}
	}
	return true, nil
}

// Boot calls Boot on every eager provider once.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	eager := slices.Clone(r.eager)
	r.mu.Unlock()

	for _, provider := range eager {
		if err := provider.Boot(r.inj); err != nil {
			return fmt.Errorf("booting %T: %w", provider, err)
		}
	}
	return nil
}

// Booted reports whether Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the eager providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.eager)
}

// Deferred lists the keys still waiting on a deferred provider, sorted.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deferred))
	for k := range r.deferred {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
