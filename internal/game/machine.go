package game

import (
	"context"
	"sync"
	"time"
)

// CueSink receives every transition that changed the state or emitted cues:
// the resulting state and its cues, which may be empty for a silent tick.
// It runs after the machine lock is released, one call at a time and in the
// order the transitions were applied. A sink must not dispatch to its own
// machine.
type CueSink func(s State, cues []Cue)

// Machine owns one State and applies actions to it one at a time.
type Machine struct {
	mu      sync.Mutex
	state   State
	applied uint64

	// notifyMu guards delivered; turn waits on it.
	notifyMu  sync.Mutex
	turn      *sync.Cond
	delivered uint64
	sink      CueSink
}

func NewMachine(initial State, sink CueSink) *Machine {
	m := &Machine{state: initial, sink: sink}
	m.turn = sync.NewCond(&m.notifyMu)
	return m
}

// Dispatch applies a and returns the emitted cues.
func (m *Machine) Dispatch(a Action) []Cue {
	m.mu.Lock()
	tr := m.apply(a)
	m.mu.Unlock()

	m.notify(tr)
	return tr.cues
}

// transition is one applied action waiting to be delivered.
type transition struct {
	seq     uint64
	state   State
	cues    []Cue
	changed bool
}

// apply must be called with m.mu held. changed is false when the transition
// was ignored.
func (m *Machine) apply(a Action) transition {
	prev := m.state
	next, cues := Reduce(prev, a)
	m.state = next
	m.applied++
	return transition{
		seq:     m.applied,
		state:   next,
		cues:    cues,
		changed: next != prev || len(cues) > 0,
	}
}

// notify waits until every earlier transition was delivered, then hands tr
// to the sink.
func (m *Machine) notify(tr transition) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	for m.delivered != tr.seq-1 {
		m.turn.Wait()
	}
	if m.sink != nil && tr.changed {
		m.sink(tr.state, tr.cues)
	}
	m.delivered = tr.seq
	m.turn.Broadcast()
}

// State returns a snapshot. Reduce never mutates a published state, so the
// snapshot stays valid after later dispatches.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Scene() Scene {
	return m.State().Scene
}

// Case returns the current case, or nil.
func (m *Machine) Case() *Case {
	return m.State().Case
}

// CaseActive reports whether a case is in progress.
func (m *Machine) CaseActive() bool {
	return activeCase(m.State())
}

// Start dispatches a StartGame and returns a Countdown bound to the case it
// created, or nil if the action was ignored.
func (m *Machine) Start(a StartGame) *Countdown {
	m.mu.Lock()
	tr := m.apply(a)
	m.mu.Unlock()

	m.notify(tr)
	if !tr.changed || tr.state.Case == nil {
		return nil
	}
	return &Countdown{m: m, number: tr.state.Case.Number}
}

// tick applies TickTimer only while case number is the current case and
// reports whether that case is still running afterwards.
func (m *Machine) tick(number int) bool {
	m.mu.Lock()
	if m.state.Case == nil || m.state.Case.Number != number {
		m.mu.Unlock()
		return false
	}
	tr := m.apply(TickTimer{})
	m.mu.Unlock()

	m.notify(tr)
	return activeCase(tr.state)
}

// Countdown feeds TickTimer actions for one case into a Machine.
type Countdown struct {
	m      *Machine
	number int
}

// NewCountdown binds a countdown to the machine's current case. It returns
// nil when no case is running.
func NewCountdown(m *Machine) *Countdown {
	c := m.Case()
	if c == nil || c.Complete {
		return nil
	}
	return &Countdown{m: m, number: c.Number}
}

// Run dispatches one TickTimer per value received on ticks. It returns nil
// once its case completes or is replaced, or ctx.Err() when ctx is done.
func (c *Countdown) Run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			if !c.m.tick(c.number) {
				return nil
			}
		}
	}
}

// RunEvery runs the countdown on a wall-clock ticker.
func (c *Countdown) RunEvery(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	return c.Run(ctx, t.C)
}
