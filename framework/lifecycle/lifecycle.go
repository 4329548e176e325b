// Package lifecycle models the host process moving between foreground and
// background, and lets components observe those transitions.
package lifecycle

import (
	"sync"

	"github.com/km-arc/go-tivi/framework/disposable"
)

// State is the current process state.
type State int

const (
	Initialized State = iota
	Created
	Started // foreground
	Stopped // backgrounded
	Destroyed
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Created:
		return "created"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// Event is a transition delivered to observers.
type Event int

const (
	OnCreate Event = iota
	OnStart
	OnStop
	OnDestroy
)

func (e Event) String() string {
	switch e {
	case OnCreate:
		return "on_create"
	case OnStart:
		return "on_start"
	case OnStop:
		return "on_stop"
	case OnDestroy:
		return "on_destroy"
	}
	return "unknown"
}

// Observer receives lifecycle events.
type Observer interface {
	OnStateChanged(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnStateChanged(e Event) { f(e) }

// Source is anything observers can subscribe to.
type Source interface {
	AddObserver(o Observer) disposable.Disposable
	State() State
}

type entry struct {
	id int
	o  Observer
}

// Process is the process-wide lifecycle owner. Events are delivered
// synchronously on the goroutine that triggered the transition, in
// registration order, and only when the state actually changes.
type Process struct {
	mu        sync.Mutex
	state     State
	observers []entry
	nextID    int

	// serialises transitions so observers see events in order
	dispatch sync.Mutex
}

// NewProcess returns a Process in the Initialized state.
func NewProcess() *Process {
	return &Process{}
}

// AddObserver registers o. Disposing the result unregisters it.
func (p *Process) AddObserver(o Observer) disposable.Disposable {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.observers = append(p.observers, entry{id: id, o: o})
	p.mu.Unlock()

	return disposable.FromFunc(func() { p.remove(id) })
}

// OnStop registers fn to run on every OnStop event.
func (p *Process) OnStop(fn func()) disposable.Disposable {
	return p.AddObserver(ObserverFunc(func(e Event) {
		if e == OnStop {
			fn()
		}
	}))
}

// OnStart registers fn to run on every OnStart event.
func (p *Process) OnStart(fn func()) disposable.Disposable {
	return p.AddObserver(ObserverFunc(func(e Event) {
		if e == OnStart {
			fn()
		}
	}))
}

func (p *Process) remove(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.observers {
		if e.id == id {
			p.observers = append(p.observers[:i:i], p.observers[i+1:]...)
			return
		}
	}
}

// State returns the current state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Create moves Initialized to Created.
func (p *Process) Create() bool { return p.transition(OnCreate, Created, Initialized) }

// Start brings the process to the foreground. A process that was never
// created is created first.
func (p *Process) Start() bool {
	p.Create()
	return p.transition(OnStart, Started, Created, Stopped)
}

// Stop sends the process to the background.
func (p *Process) Stop() bool { return p.transition(OnStop, Stopped, Started) }

// Destroy stops the process if needed, then ends its lifecycle.
func (p *Process) Destroy() bool {
	p.Stop()
	return p.transition(OnDestroy, Destroyed, Created, Stopped)
}

func (p *Process) transition(e Event, to State, from ...State) bool {
	p.dispatch.Lock()
	defer p.dispatch.Unlock()

	p.mu.Lock()
	allowed := false
	for _, s := range from {
		if p.state == s {
			allowed = true
			break
		}
	}
	if !allowed {
		p.mu.Unlock()
		return false
	}
	p.state = to
	observers := append([]entry(nil), p.observers...)
	p.mu.Unlock()

	for _, ob := range observers {
		ob.o.OnStateChanged(e)
	}
	return true
}
