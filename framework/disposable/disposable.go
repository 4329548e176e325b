// Package disposable provides cancelable work handles and a thread-safe bag
// that holds them.
package disposable

import (
	"context"
	"sync"
	"sync/atomic"
)

// Disposable is a handle to work or a registration that can be canceled.
// Dispose must be idempotent and safe for concurrent use.
type Disposable interface {
	Dispose()
	IsDisposed() bool
}

type funcDisposable struct {
	once     sync.Once
	disposed atomic.Bool
	fn       func()
}

// FromFunc returns a Disposable that calls fn exactly once when disposed.
func FromFunc(fn func()) Disposable {
	return &funcDisposable{fn: fn}
}

// FromCancel wraps a context cancel function.
func FromCancel(cancel context.CancelFunc) Disposable {
	return FromFunc(func() { cancel() })
}

func (d *funcDisposable) Dispose() {
	d.once.Do(func() {
		d.disposed.Store(true)
		if d.fn != nil {
			d.fn()
		}
	})
}

func (d *funcDisposable) IsDisposed() bool { return d.disposed.Load() }

// Empty returns a fresh Disposable with no underlying work.
func Empty() Disposable { return FromFunc(nil) }

// Disposed returns a Disposable that is already disposed.
func Disposed() Disposable {
	d := Empty()
	d.Dispose()
	return d
}
