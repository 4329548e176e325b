package schedulers

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AppSchedulers is the process-wide scheduler bundle.
//
// Disk and Network are the same I/O pool.
type AppSchedulers struct {
	Database Scheduler
	Disk     Scheduler
	Network  Scheduler
	Main     *MainLoop

	single *Single
	io     *Pool
}

// New builds the bundle: a single background executor for Database, one I/O
// pool of ioSize for Disk and Network, and an idle main loop.
func New(ioSize int, log *zap.Logger) *AppSchedulers {
	if log == nil {
		log = zap.NewNop()
	}
	single := NewSingle(log.Named("database"))
	io := NewPool(ioSize, log.Named("io"))
	return &AppSchedulers{
		Database: single,
		Disk:     io,
		Network:  io,
		Main:     NewMainLoop(log.Named("main")),
		single:   single,
		io:       io,
	}
}

// IOPoolSize returns the bound of the shared I/O pool.
func (s *AppSchedulers) IOPoolSize() int { return s.io.Size() }

// Shutdown stops every scheduler and waits for in-flight work.
func (s *AppSchedulers) Shutdown(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.single.Shutdown(ctx) })
	g.Go(func() error { return s.io.Shutdown(ctx) })
	g.Go(func() error { return s.Main.Shutdown(ctx) })
	return g.Wait()
}
