// Package appinitializers holds the one-time setup steps run at startup.
package appinitializers

import (
	"context"
	"time"
	_ "time/tzdata" // embedded IANA database for TimeInitializer

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/km-arc/go-tivi/framework/jobs"
	"github.com/km-arc/go-tivi/framework/schedulers"
)

// Initializer is one startup step.
type Initializer interface {
	Init(ctx context.Context) error
}

// AppInitializers runs a fixed set of initializers. No order between them is
// guaranteed; they run concurrently and Init returns the first error.
type AppInitializers struct {
	initializers []Initializer
}

// New aggregates inits.
func New(inits ...Initializer) *AppInitializers {
	return &AppInitializers{initializers: inits}
}

// Len returns the number of initializers.
func (a *AppInitializers) Len() int { return len(a.initializers) }

// Init runs every initializer.
func (a *AppInitializers) Init(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, in := range a.initializers {
		in := in
		g.Go(func() error { return in.Init(ctx) })
	}
	return g.Wait()
}

// ── Jobs ─────────────────────────────────────────────────────────────────────

// JobInitializer installs the app's job creator and executor on a manager.
type JobInitializer struct {
	Manager  *jobs.Manager
	Creator  jobs.Creator
	Executor schedulers.Scheduler
}

func (j *JobInitializer) Init(context.Context) error {
	if j.Manager == nil || j.Creator == nil || j.Executor == nil {
		return errors.New("job initializer: manager, creator and executor are required")
	}
	j.Manager.SetExecutor(j.Executor)
	j.Manager.AddCreator(j.Creator)
	return nil
}

// ── Logging ──────────────────────────────────────────────────────────────────

// LoggingInitializer makes Logger the process-wide logger, including for
// code that writes through the standard library's log package.
type LoggingInitializer struct {
	Logger *zap.Logger
}

func (l *LoggingInitializer) Init(context.Context) error {
	if l.Logger == nil {
		return errors.New("logging initializer: no logger")
	}
	zap.ReplaceGlobals(l.Logger)
	zap.RedirectStdLog(l.Logger)
	return nil
}

// ── Time ─────────────────────────────────────────────────────────────────────

// TimeInitializer sets the process time zone. An empty Zone keeps the
// system zone.
type TimeInitializer struct {
	Zone string
	Log  *zap.Logger
}

func (t *TimeInitializer) Init(context.Context) error {
	if t.Zone == "" {
		return nil
	}
	loc, err := time.LoadLocation(t.Zone)
	if err != nil {
		return errors.Wrapf(err, "time initializer: zone %q", t.Zone)
	}
	time.Local = loc
	if t.Log != nil {
		t.Log.Debug("time zone set", zap.String("zone", loc.String()))
	}
	return nil
}
