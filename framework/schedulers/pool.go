package schedulers

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/km-arc/go-tivi/framework/disposable"
)

// DefaultPoolSize bounds the I/O pool when no size is configured.
const DefaultPoolSize = 8

// Pool runs up to size tasks concurrently.
type Pool struct {
	size int64
	sem  *semaphore.Weighted
	log  *zap.Logger

	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool returns a pool bounded to size concurrent tasks.
func NewPool(size int, log *zap.Logger) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	base, cancel := context.WithCancel(context.Background())
	return &Pool{
		size:   int64(size),
		sem:    semaphore.NewWeighted(int64(size)),
		log:    log,
		base:   base,
		cancel: cancel,
	}
}

// Size returns the concurrency bound.
func (p *Pool) Size() int { return int(p.size) }

// Schedule runs task once a slot is free. After Shutdown it returns an
// already disposed handle.
func (p *Pool) Schedule(task Task) disposable.Disposable {
	w := newWork(p.base, task)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		w.handle.Dispose()
		return w.handle
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(w.ctx, 1); err != nil {
			w.handle.Dispose()
			return
		}
		defer p.sem.Release(1)
		w.run(p.log)
	}()
	return w.handle
}

// Shutdown stops accepting tasks and waits for in-flight ones. When ctx
// expires first, in-flight tasks are canceled and ctx's error returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}
