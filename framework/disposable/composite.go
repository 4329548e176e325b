package disposable

import (
	"reflect"
	"sync"
)

// Composite holds Disposables and disposes them in bulk. It is safe for
// concurrent Add and Clear. Any Disposable can be held, including
// non-comparable ones such as slice-backed groups.
//
// Clear empties the bag and keeps it usable; Dispose is terminal and any
// later Add disposes the newcomer immediately.
type Composite struct {
	mu       sync.Mutex
	items    []Disposable
	disposed bool
}

// NewComposite returns an empty bag holding the given disposables.
func NewComposite(ds ...Disposable) *Composite {
	c := &Composite{}
	c.AddAll(ds...)
	return c
}

// Add stores d. Adding a value already held is a no-op. It returns false,
// after disposing d, when the bag has been disposed.
func (c *Composite) Add(d Disposable) bool {
	if d == nil {
		return false
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose()
		return false
	}
	if c.indexOf(d) < 0 {
		c.items = append(c.items, d)
	}
	c.mu.Unlock()
	return true
}

// AddAll stores every d, with the same semantics as Add.
func (c *Composite) AddAll(ds ...Disposable) bool {
	ok := true
	for _, d := range ds {
		if !c.Add(d) {
			ok = false
		}
	}
	return ok
}

// Remove takes d out of the bag and disposes it.
func (c *Composite) Remove(d Disposable) bool {
	if c.Delete(d) {
		d.Dispose()
		return true
	}
	return false
}

// Delete takes d out of the bag without disposing it.
func (c *Composite) Delete(d Disposable) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(d)
	if i < 0 {
		return false
	}
	last := len(c.items) - 1
	c.items[i] = c.items[last]
	c.items[last] = nil
	c.items = c.items[:last]
	return true
}

// indexOf must be called with c.mu held.
func (c *Composite) indexOf(d Disposable) int {
	for i, have := range c.items {
		if identical(have, d) {
			return i
		}
	}
	return -1
}

// identical compares two handles without hashing them. Slices, maps and
// funcs are the same handle when they share backing storage.
func identical(a, b Disposable) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	return false
}

// Clear disposes every held item and empties the bag. The bag stays usable.
func (c *Composite) Clear() {
	c.mu.Lock()
	items := c.items
	c.items = nil
	c.mu.Unlock()

	disposeAll(items)
}

// Dispose clears the bag and marks it disposed.
func (c *Composite) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	disposeAll(items)
}

// IsDisposed reports whether Dispose has been called.
func (c *Composite) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Size returns the number of held items.
func (c *Composite) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// StopNotifier delivers a callback whenever the host process is stopped.
// lifecycle.Process satisfies it.
type StopNotifier interface {
	OnStop(fn func()) Disposable
}

// ClearOn clears the bag every time source reports a stop. Disposing the
// returned registration detaches the bag again.
func (c *Composite) ClearOn(source StopNotifier) Disposable {
	return source.OnStop(c.Clear)
}

// disposeAll must be called without holding the bag's lock.
func disposeAll(items []Disposable) {
	for _, d := range items {
		d.Dispose()
	}
}
