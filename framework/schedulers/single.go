package schedulers

import (
	"context"

	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/framework/disposable"
)

// Single runs tasks one at a time, in submission order, on one goroutine.
type Single struct {
	q      *queue
	log    *zap.Logger
	base   context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSingle starts the executor goroutine.
func NewSingle(log *zap.Logger) *Single {
	base, cancel := context.WithCancel(context.Background())
	s := &Single{
		q:      newQueue(),
		log:    log,
		base:   base,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Single) loop() {
	defer close(s.done)
	for {
		w, ok := s.q.take(context.Background())
		if !ok {
			return
		}
		w.run(s.log)
	}
}

// Schedule queues task. After Shutdown it returns an already disposed handle.
func (s *Single) Schedule(task Task) disposable.Disposable {
	w := newWork(s.base, task)
	if !s.q.put(w) {
		w.handle.Dispose()
	}
	return w.handle
}

// Shutdown stops accepting tasks and waits for queued ones to finish. When
// ctx expires first, running tasks are canceled and ctx's error returned.
func (s *Single) Shutdown(ctx context.Context) error {
	s.q.close()
	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}
