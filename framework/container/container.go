package container

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ── Keys ──────────────────────────────────────────────────────────────────────

// Qualifier disambiguates several bindings of the same type. Applications
// declare their own closed set of qualifiers as typed constants; the zero
// value means "unqualified".
type Qualifier uint8

// Unqualified is the qualifier of a plain, type-only binding.
const Unqualified Qualifier = 0

// Key identifies a binding by its Go type and qualifier.
type Key struct {
	Type      reflect.Type
	Qualifier Qualifier
}

// KeyOf returns the key for type T under qualifier q.
//
//	key := container.KeyOf[*prefs.Store](inject.App)
func KeyOf[T any](q Qualifier) Key {
	return Key{Type: reflect.TypeOf((*T)(nil)).Elem(), Qualifier: q}
}

func (k Key) String() string {
	name := "<nil>"
	if k.Type != nil {
		name = k.Type.String()
	}
	if k.Qualifier == Unqualified {
		return name
	}
	return fmt.Sprintf("%s@%d", name, k.Qualifier)
}

// ── Errors ────────────────────────────────────────────────────────────────────

var (
	// ErrNotBound is returned when no binding exists for a key.
	ErrNotBound = errors.New("container: no binding registered")

	// ErrCycle is returned when a factory depends on itself, directly or not.
	ErrCycle = errors.New("container: dependency cycle")

	// ErrTypeMismatch is returned when a factory produced a value of the wrong type.
	ErrTypeMismatch = errors.New("container: resolved value has unexpected type")
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory builds a concrete value, resolving its own dependencies through r.
type Factory func(r Resolver) any

// Extender decorates an already built instance.
type Extender func(instance any, r Resolver) any

// Resolver is the read side of the container handed to factories. Every
// resolution carries its own build stack, so cycle detection stays correct
// when several goroutines resolve at once.
type Resolver interface {
	make(key Key) (any, error)
}

type binding struct {
	factory   Factory
	singleton bool

	// serialises the first construction of a singleton
	mu sync.Mutex
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container holds bindings keyed by (type, qualifier).
//
// It supports:
//   - Bind / Singleton / Instance
//   - Resolve / TryResolve (generic)
//   - Extend (decorate resolved instances)
//   - Resolved event callbacks
type Container struct {
	mu sync.RWMutex

	bindings  map[Key]*binding
	instances map[Key]any
	extenders map[Key][]Extender

	afterResolving []func(Key, any)

	// consulted once when a key is unbound, e.g. to load a deferred provider
	missing func(Key) bool
}

// New creates an empty container. The container is bound to itself.
func New() *Container {
	c := &Container{
		bindings:  make(map[Key]*binding),
		instances: make(map[Key]any),
		extenders: make(map[Key][]Extender),
	}
	c.Instance(KeyOf[*Container](Unqualified), c)
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient factory: every resolution builds a new value.
func (c *Container) Bind(key Key, factory Factory) {
	c.bind(key, factory, false)
}

// Singleton registers a factory whose result is cached after first resolution.
func (c *Container) Singleton(key Key, factory Factory) {
	c.bind(key, factory, true)
}

// Instance registers a pre-built value as a singleton.
func (c *Container) Instance(key Key, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, key)
	c.instances[key] = instance
}

func (c *Container) bind(key Key, factory Factory, singleton bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// rebinding drops the cached singleton so the new factory wins
	delete(c.instances, key)
	c.bindings[key] = &binding{factory: factory, singleton: singleton}
}

// Extend decorates the resolved instance of key. An already cached singleton
// is decorated in place.
func (c *Container) Extend(key Key, fn Extender) {
	c.mu.Lock()
	c.extenders[key] = append(c.extenders[key], fn)
	inst, cached := c.instances[key]
	c.mu.Unlock()

	if cached {
		extended := fn(inst, &resolution{c: c})
		c.mu.Lock()
		c.instances[key] = extended
		c.mu.Unlock()
	}
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves key, panicking on configuration defects.
func (c *Container) Make(key Key) any {
	v, err := c.make(key)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *Container) make(key Key) (any, error) {
	return (&resolution{c: c}).make(key)
}

// resolution is a single top-level Make together with its build stack.
type resolution struct {
	c     *Container
	stack []Key
}

func (r *resolution) make(key Key) (any, error) {
	for _, k := range r.stack {
		if k == key {
			return nil, errors.Wrap(ErrCycle, r.chain(key))
		}
	}

	c := r.c
	if inst, ok := c.cached(key); ok {
		return inst, nil
	}

	b, ok := c.lookup(key)
	if !ok && c.loadMissing(key) {
		if inst, cached := c.cached(key); cached {
			return inst, nil
		}
		b, ok = c.lookup(key)
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotBound, "[%s]", key)
	}

	if !b.singleton {
		return r.build(key, b.factory), nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if inst, ok := c.cached(key); ok {
		return inst, nil
	}
	inst := r.build(key, b.factory)
	c.mu.Lock()
	// only cache when the binding was not replaced while we were building
	if c.bindings[key] == b {
		c.instances[key] = inst
	}
	c.mu.Unlock()
	return inst, nil
}

func (r *resolution) build(key Key, f Factory) any {
	r.stack = append(r.stack, key)
	instance := f(r)
	r.stack = r.stack[:len(r.stack)-1]

	c := r.c
	c.mu.RLock()
	exts := c.extenders[key]
	cbs := c.afterResolving
	c.mu.RUnlock()

	for _, ext := range exts {
		instance = ext(instance, r)
	}
	for _, cb := range cbs {
		cb(key, instance)
	}
	return instance
}

func (r *resolution) chain(key Key) string {
	parts := make([]string, 0, len(r.stack)+1)
	for _, k := range r.stack {
		parts = append(parts, k.String())
	}
	parts = append(parts, key.String())
	return strings.Join(parts, " -> ")
}

func (c *Container) cached(key Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inst, ok := c.instances[key]
	return inst, ok
}

func (c *Container) lookup(key Key) (*binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bindings[key]
	return b, ok
}

func (c *Container) loadMissing(key Key) bool {
	c.mu.RLock()
	hook := c.missing
	c.mu.RUnlock()
	return hook != nil && hook(key)
}

func (c *Container) onMissing(hook func(Key) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missing = hook
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether key has a binding or an instance.
func (c *Container) Bound(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	return hasBinding || hasInstance
}

// Resolved reports whether key holds a cached instance.
func (c *Container) Resolved(key Key) bool {
	_, ok := c.cached(key)
	return ok
}

// Forget removes the binding and any cached instance for key.
func (c *Container) Forget(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, key)
	delete(c.instances, key)
	delete(c.extenders, key)
}

// Flush resets the container, keeping only its self binding.
func (c *Container) Flush() {
	c.mu.Lock()
	c.bindings = make(map[Key]*binding)
	c.instances = make(map[Key]any)
	c.extenders = make(map[Key][]Extender)
	c.mu.Unlock()
	c.Instance(KeyOf[*Container](Unqualified), c)
}

// Keys returns every bound key (for debugging).
func (c *Container) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Key, 0, len(c.bindings)+len(c.instances))
	for k := range c.bindings {
		out = append(out, k)
	}
	for k := range c.instances {
		if _, already := c.bindings[k]; !already {
			out = append(out, k)
		}
	}
	return out
}

// AfterResolving registers a callback fired after any binding is built.
func (c *Container) AfterResolving(cb func(key Key, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Provide registers a transient typed factory for (T, q).
//
//	container.Provide(c, inject.TmdbAPIKey, func(r container.Resolver) string {
//	    return container.Resolve[*config.Config](r, container.Unqualified).Credentials.TmdbAPIKey
//	})
func Provide[T any](c *Container, q Qualifier, f func(r Resolver) T) {
	c.Bind(KeyOf[T](q), func(r Resolver) any { return f(r) })
}

// ProvideSingleton registers a typed factory whose result is built once.
func ProvideSingleton[T any](c *Container, q Qualifier, f func(r Resolver) T) {
	c.Singleton(KeyOf[T](q), func(r Resolver) any { return f(r) })
}

// ProvideInstance registers a pre-built value for (T, q).
func ProvideInstance[T any](c *Container, q Qualifier, v T) {
	c.Instance(KeyOf[T](q), v)
}

// Resolve returns the value bound to (T, q). A missing binding or a cycle is a
// startup configuration defect and panics.
//
//	prefs := container.Resolve[*prefs.Store](c, inject.App)
func Resolve[T any](r Resolver, q Qualifier) T {
	v, err := TryResolve[T](r, q)
	if err != nil {
		panic(err)
	}
	return v
}

// TryResolve is like Resolve but reports failures as errors.
func TryResolve[T any](r Resolver, q Qualifier) (T, error) {
	var zero T
	key := KeyOf[T](q)
	instance, err := r.make(key)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, errors.Wrapf(ErrTypeMismatch, "[%s] resolved to %T", key, instance)
	}
	return typed, nil
}
