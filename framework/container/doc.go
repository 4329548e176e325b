// Package container provides a typed IoC container and a Service Provider
// system.
//
// # Overview
//
// Bindings are keyed by a Go type plus a Qualifier. Qualifiers form a closed,
// application-defined set of typed constants, so two bindings of the same
// type (say, two strings holding different API credentials) never collide and
// never depend on free-form string names.
//
// Because Go has no runtime constructor reflection, auto-wiring is replaced by
// explicit factory functions.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register providers: registry.Register(&MyModule{})
//  3. Boot: registry.Boot(), after which everything resolves
//  4. Resolve and run
//
// # Bindings
//
//	// Transient: new value every resolution
//	container.Provide(c, container.Unqualified, func(r container.Resolver) *Navigator {
//	    return NewNavigator()
//	})
//
//	// Singleton: created once, reused
//	container.ProvideSingleton(c, Cache, func(r container.Resolver) string {
//	    return container.Resolve[*Application](r, container.Unqualified).CacheDir()
//	})
//
//	// Pre-built value
//	container.ProvideInstance(c, container.Unqualified, cfg)
//
// # Resolving
//
//	dir := container.Resolve[string](c, Cache)
//
//	// Without panicking
//	dir, err := container.TryResolve[string](c, Cache)
//
// A missing binding and a dependency cycle are configuration defects:
// Resolve panics, TryResolve returns an error wrapping ErrNotBound or
// ErrCycle.
//
// # Extend / Decorate
//
//	c.Extend(container.KeyOf[*zap.Logger](container.Unqualified), func(instance any, r container.Resolver) any {
//	    return instance.(*zap.Logger).Named("tivi")
//	})
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool { return true }
//	func (p *HeavyProvider) Provides() []container.Key {
//	    return []container.Key{container.KeyOf[*Heavy](container.Unqualified)}
//	}
//	func (p *HeavyProvider) Register(app *container.Container) {
//	    container.ProvideSingleton(app, container.Unqualified, func(r container.Resolver) *Heavy {
//	        return heavySetup() // only called on first resolution
//	    })
//	}
package container
