// Package schedulers names the execution roles the app uses: a single
// background executor, a bounded I/O pool, and a main loop that runs on a
// dedicated OS thread.
package schedulers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/framework/disposable"
)

// Task is a unit of work. ctx is canceled when the task's handle is disposed
// or its scheduler is torn down.
type Task func(ctx context.Context)

// Scheduler runs tasks. Disposing the returned handle before the task starts
// skips it; disposing it while the task runs cancels the task's context.
type Scheduler interface {
	Schedule(task Task) disposable.Disposable
}

// work is one scheduled task together with its cancelation handle.
type work struct {
	ctx    context.Context
	task   Task
	handle disposable.Disposable
}

func newWork(base context.Context, task Task) *work {
	ctx, cancel := context.WithCancel(base)
	return &work{ctx: ctx, task: task, handle: disposable.FromCancel(cancel)}
}

func (w *work) run(log *zap.Logger) {
	// the handle counts as disposed once the task has finished
	defer w.handle.Dispose()
	if w.ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("scheduled task panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	w.task(w.ctx)
}

// queue is an unbounded FIFO of work with a blocking, cancelable take.
type queue struct {
	mu     sync.Mutex
	items  []*work
	closed bool
	signal chan struct{}
}

func newQueue() *queue {
	return &queue{signal: make(chan struct{}, 1)}
}

func (q *queue) put(w *work) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, w)
	q.mu.Unlock()
	q.wake()
	return true
}

func (q *queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// take blocks until work is available, the queue is closed and drained, or
// ctx is done.
func (q *queue) take(ctx context.Context) (*work, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			w := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return w, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
