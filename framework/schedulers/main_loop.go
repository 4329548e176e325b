package schedulers

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/framework/disposable"
)

// ErrLoopRunning is returned when Run is called while the loop already runs.
var ErrLoopRunning = errors.New("schedulers: main loop already running")

// MainLoop is the UI-equivalent thread. Tasks queue until Run drains them on
// the goroutine that called Run, which stays locked to its OS thread for the
// duration. Call Run from main.
type MainLoop struct {
	q       *queue
	log     *zap.Logger
	base    context.Context
	cancel  context.CancelFunc
	running atomic.Bool
}

// NewMainLoop returns an idle loop.
func NewMainLoop(log *zap.Logger) *MainLoop {
	base, cancel := context.WithCancel(context.Background())
	return &MainLoop{q: newQueue(), log: log, base: base, cancel: cancel}
}

// Schedule queues task for the loop. After Close it returns an already
// disposed handle.
func (m *MainLoop) Schedule(task Task) disposable.Disposable {
	w := newWork(m.base, task)
	if !m.q.put(w) {
		w.handle.Dispose()
	}
	return w.handle
}

// Run executes queued tasks until ctx is done or Close is called. It returns
// nil after Close and ctx's error otherwise.
func (m *MainLoop) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer m.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		w, ok := m.q.take(ctx)
		if !ok {
			return ctx.Err()
		}
		w.run(m.log)
	}
}

// Running reports whether Run is active.
func (m *MainLoop) Running() bool { return m.running.Load() }

// Pending returns the number of queued tasks.
func (m *MainLoop) Pending() int { return m.q.len() }

// Close stops accepting tasks; Run returns once the queue is drained.
func (m *MainLoop) Close() {
	m.q.close()
}

// Shutdown closes the loop and cancels every task still queued.
func (m *MainLoop) Shutdown(context.Context) error {
	m.Close()
	if !m.Running() {
		m.cancel()
	}
	return nil
}
