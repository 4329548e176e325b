package container

import "sync"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related bindings.
//
// Boot() is called after ALL providers have been registered, making it safe
// to resolve other bindings inside Boot().
//
//	type AppModule struct{ container.BaseProvider }
//
//	func (m *AppModule) Register(app *container.Container) {
//	    container.ProvideSingleton(app, container.Unqualified, func(r container.Resolver) *schedulers.AppSchedulers {
//	        return schedulers.New(8)
//	    })
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here; use Boot() for that.
	Register(app *Container)

	// Boot is called after all providers are registered.
	Boot(app *Container)

	// Provides returns the keys a deferred provider registers.
	Provides() []Key

	// IsDeferred returns true if this provider should only be registered when
	// one of its Provides() keys is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot(), Provides(), and
// IsDeferred().
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) {}
func (p *BaseProvider) Provides() []Key   { return nil }
func (p *BaseProvider) IsDeferred() bool  { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred ones.
type ProviderRegistry struct {
	app *Container

	mu         sync.Mutex
	eager      []ServiceProvider
	deferred   map[Key]ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	r := &ProviderRegistry{
		app:        app,
		deferred:   make(map[Key]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
	app.onMissing(r.loadDeferred)
	return r
}

// Register adds a provider and calls its Register() method (unless deferred).
// Registering the same provider twice is a no-op.
func (r *ProviderRegistry) Register(provider ServiceProvider) {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, key := range provider.Provides() {
			r.deferred[key] = provider
		}
		r.mu.Unlock()
		return
	}

	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	provider.Register(r.app)
	if booted {
		provider.Boot(r.app)
	}
}

// loadDeferred registers the deferred provider owning key, if any.
func (r *ProviderRegistry) loadDeferred(key Key) bool {
	r.mu.Lock()
	provider, ok := r.deferred[key]
	if !ok {
		r.mu.Unlock()
		return false
	}
	for _, k := range provider.Provides() {
		delete(r.deferred, k)
	}
	booted := r.booted
	r.mu.Unlock()

	provider.Register(r.app)
	if booted {
		provider.Boot(r.app)
	}
	return true
}

// Boot calls Boot() on all eager providers. Repeated calls are ignored.
func (r *ProviderRegistry) Boot() {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return
	}
	r.booted = true
	eager := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range eager {
		provider.Boot(r.app)
	}
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}
