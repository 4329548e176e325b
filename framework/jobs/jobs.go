// Package jobs is a small background job manager: callers enqueue tagged
// requests, a registered Creator turns tags into Jobs, and a scheduler runs
// them with exponential backoff on Reschedule.
package jobs

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/framework/disposable"
	"github.com/km-arc/go-tivi/framework/schedulers"
)

var (
	// ErrNoCreator is returned when no creator knows a request's tag.
	ErrNoCreator = errors.New("jobs: no creator for tag")

	// ErrNoExecutor is returned when Schedule is called before SetExecutor.
	ErrNoExecutor = errors.New("jobs: no executor installed")
)

// ID identifies a scheduled request.
type ID = uuid.UUID

// Result is the outcome of one run.
type Result int

const (
	Success Result = iota
	Failure
	Reschedule
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Reschedule:
		return "reschedule"
	}
	return "unknown"
}

// Params are handed to a job run.
type Params struct {
	ID      ID
	Tag     string
	Extras  map[string]string
	Attempt int
}

// Job is one unit of background work.
type Job interface {
	Run(ctx context.Context, p Params) Result
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context, p Params) Result

func (f JobFunc) Run(ctx context.Context, p Params) Result { return f(ctx, p) }

// Creator builds the job for a tag, or nil if it does not know the tag.
type Creator interface {
	Create(tag string) Job
}

// CreatorFunc adapts a function to Creator.
type CreatorFunc func(tag string) Job

func (f CreatorFunc) Create(tag string) Job { return f(tag) }

// Request describes work to schedule.
type Request struct {
	Tag    string
	Extras map[string]string

	// MaxAttempts bounds Reschedule retries; zero means DefaultMaxAttempts.
	MaxAttempts int
}

// DefaultMaxAttempts bounds retries of rescheduled jobs.
const DefaultMaxAttempts = 5

// Manager schedules job requests.
type Manager struct {
	mu       sync.Mutex
	creators []Creator
	executor schedulers.Scheduler
	running  map[ID]*request
	log      *zap.Logger

	// newBackOff is replaced in tests
	newBackOff func() backoff.BackOff
}

// request is one scheduled Request across all of its attempts. Between
// attempts it holds a timer instead of an executor slot.
type request struct {
	id      ID
	job     Job
	params  Params
	max     int
	exec    schedulers.Scheduler
	backOff backoff.BackOff
	log     *zap.Logger

	// guarded by Manager.mu
	gen      int
	handle   disposable.Disposable
	timer    *time.Timer
	canceled bool
}

// NewManager returns a manager with no creators and no executor.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		running: make(map[ID]*request),
		log:     log,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 30 * time.Second
			b.MaxInterval = 5 * time.Hour
			b.MaxElapsedTime = 0
			return b
		},
	}
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process-wide manager.
func Default() *Manager {
	defaultOnce.Do(func() { defaultManager = NewManager(nil) })
	return defaultManager
}

// SetLogger replaces the manager's logger.
func (m *Manager) SetLogger(log *zap.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = log
}

// AddCreator registers c. Creators are consulted in registration order.
// Adding a creator that is already registered is a no-op.
func (m *Manager) AddCreator(c Creator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, have := range m.creators {
		if sameCreator(have, c) {
			return
		}
	}
	m.creators = append(m.creators, c)
}

// sameCreator compares creators without panicking on func-backed ones.
func sameCreator(a, b Creator) bool {
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}

// SetExecutor installs the scheduler jobs run on.
func (m *Manager) SetExecutor(s schedulers.Scheduler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executor = s
}

func (m *Manager) create(tag string) Job {
	m.mu.Lock()
	creators := append([]Creator(nil), m.creators...)
	m.mu.Unlock()
	for _, c := range creators {
		if j := c.Create(tag); j != nil {
			return j
		}
	}
	return nil
}

// Schedule enqueues req and returns its id.
func (m *Manager) Schedule(req Request) (ID, error) {
	job := m.create(req.Tag)
	if job == nil {
		return uuid.Nil, errors.Wrapf(ErrNoCreator, "%q", req.Tag)
	}

	m.mu.Lock()
	exec := m.executor
	log := m.log
	newBackOff := m.newBackOff
	m.mu.Unlock()
	if exec == nil {
		return uuid.Nil, ErrNoExecutor
	}

	id := uuid.New()
	max := req.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	r := &request{
		id:      id,
		job:     job,
		params:  Params{ID: id, Tag: req.Tag, Extras: req.Extras},
		max:     max,
		exec:    exec,
		backOff: newBackOff(),
		log:     log.With(zap.String("job", req.Tag), zap.Stringer("id", id)),
	}

	// registered before the first attempt so that an inline executor
	// finishing it immediately still finds it
	m.mu.Lock()
	m.running[id] = r
	m.mu.Unlock()

	r.log.Debug("job scheduled")
	m.dispatch(r)
	return id, nil
}

// dispatch hands the next attempt of r to its executor. It must be called
// without holding m.mu.
func (m *Manager) dispatch(r *request) {
	m.mu.Lock()
	r.gen++
	gen := r.gen
	r.timer = nil
	m.mu.Unlock()

	var started atomic.Bool
	h := r.exec.Schedule(func(ctx context.Context) {
		started.Store(true)
		m.attempt(ctx, r)
	})

	m.mu.Lock()
	live := m.running[r.id] == r && !r.canceled
	if live && r.gen == gen {
		r.handle = h
	}
	m.mu.Unlock()

	switch {
	case !live:
		h.Dispose()
	case h.IsDisposed() && !started.Load():
		// the executor refused the task, e.g. after shutdown
		r.log.Warn("job dropped by executor")
		m.finish(r)
	}
}

// attempt runs r once. On Reschedule it gives the executor slot back and
// arms a timer for the next attempt.
func (m *Manager) attempt(ctx context.Context, r *request) {
	r.params.Attempt++
	n := r.params.Attempt
	res := r.job.Run(ctx, r.params)
	r.log.Debug("job finished", zap.Int("attempt", n), zap.Stringer("result", res))

	if res != Reschedule || ctx.Err() != nil {
		m.finish(r)
		return
	}
	if n >= r.max {
		r.log.Warn("job gave up", zap.Int("attempts", n))
		m.finish(r)
		return
	}
	wait := r.backOff.NextBackOff()
	if wait == backoff.Stop {
		m.finish(r)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running[r.id] != r || r.canceled {
		return
	}
	r.handle = nil
	r.timer = time.AfterFunc(wait, func() { m.dispatch(r) })
}

func (m *Manager) finish(r *request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running[r.id] == r {
		delete(m.running, r.id)
	}
}

// stop cancels r's pending timer and running attempt. It must be called
// without holding m.mu.
func (m *Manager) stop(r *request) {
	m.mu.Lock()
	r.canceled = true
	h, t := r.handle, r.timer
	r.handle, r.timer = nil, nil
	m.mu.Unlock()

	if t != nil {
		t.Stop()
	}
	if h != nil {
		h.Dispose()
	}
}

// Cancel cancels the request with id. It returns false if the request is
// unknown or already done.
func (m *Manager) Cancel(id ID) bool {
	m.mu.Lock()
	r, ok := m.running[id]
	delete(m.running, id)
	m.mu.Unlock()
	if ok {
		m.stop(r)
	}
	return ok
}

// CancelAll cancels every pending, waiting or running request.
func (m *Manager) CancelAll() int {
	m.mu.Lock()
	running := m.running
	m.running = make(map[ID]*request)
	m.mu.Unlock()
	for _, r := range running {
		m.stop(r)
	}
	return len(running)
}

// Pending returns the number of requests not yet finished.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.running)
}
