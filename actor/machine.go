package actor

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/matt-g-everett/spritetx/metrics"
	"github.com/matt-g-everett/spritetx/sprite"
)

// DurationSource says how long a state should be displayed. It must not
// fail; implementations fall back internally.
type DurationSource interface {
	Duration(ctx context.Context, state sprite.State) time.Duration
}

// phase is where the current state entry is in its cycle. A cycle always
// runs awaitingRender -> resolving -> scheduled; only a scheduled cycle can
// be advanced by its timer.
type phase uint8

const (
	phaseAwaitingRender phase = iota
	phaseResolving
	phaseScheduled
	phaseStopped
)

func (p phase) String() string {
	switch p {
	case phaseAwaitingRender:
		return "awaiting-render"
	case phaseResolving:
		return "resolving"
	case phaseScheduled:
		return "scheduled"
	case phaseStopped:
		return "stopped"
	}
	return "unknown"
}

// machine is the actor's state controller. It is not safe for concurrent
// use: every method must run on the goroutine that owns it, and work that
// completes elsewhere re-enters through dispatch.
type machine struct {
	id        string
	clock     clock.Clock
	durations DurationSource
	dispatch  func(func())
	publish   func(sprite.Playback)
	metrics   *metrics.Metrics
	ctx       context.Context

	state  sprite.State
	token  sprite.Token
	seq    uint64
	phase  phase
	active bool
	loaded bool
	timer  *clock.Timer
	table  transitions
}

// start enters the initial state.
func (m *machine) start(initial sprite.State) {
	m.enter(initial)
}

// enter switches to next with a fresh token and waits for the render side to
// report the new asset as loaded before anything is scheduled.
func (m *machine) enter(next sprite.State) {
	m.cancelTimer()
	m.state = next
	m.token++
	m.seq++
	m.phase = phaseAwaitingRender
	m.loaded = false
	glog.V(1).Infof("actor %s: enter %s token=%d", m.id, next, m.token)
	m.publish(sprite.Playback{State: next, Token: m.token})
}

// assetLoaded handles the render side's acknowledgement for token.
func (m *machine) assetLoaded(token sprite.Token) {
	if m.phase == phaseStopped {
		return
	}
	if token != m.token {
		glog.V(2).Infof("actor %s: drop load ack for token %d, current %d", m.id, token, m.token)
		m.metrics.StaleDiscard("token")
		return
	}
	if m.loaded {
		return
	}
	m.loaded = true
	if m.active {
		m.schedule()
	}
}

// schedule starts the duration lookup for the current state. The lookup
// runs off the owning goroutine; its result is only honoured if no newer
// state entry or schedule happened in the meantime.
func (m *machine) schedule() {
	m.cancelTimer()
	m.seq++
	seq := m.seq
	state := m.state
	m.phase = phaseResolving

	ctx := m.ctx
	go func() {
		d := m.durations.Duration(ctx, state)
		m.dispatch(func() { m.resolved(seq, state, d) })
	}()
}

// resolved arms the timer for a finished duration lookup.
func (m *machine) resolved(seq uint64, state sprite.State, d time.Duration) {
	if m.phase == phaseStopped {
		return
	}
	if seq != m.seq || m.phase != phaseResolving {
		glog.V(2).Infof("actor %s: drop duration for %s seq=%d, current %d", m.id, state, seq, m.seq)
		m.metrics.StaleDiscard("sequence")
		return
	}
	m.phase = phaseScheduled
	glog.V(1).Infof("actor %s: %s plays for %v", m.id, state, d)
	m.timer = m.clock.AfterFunc(d, func() {
		m.dispatch(func() { m.fire(seq, state) })
	})
}

// fire applies the transition table once state has finished playing.
func (m *machine) fire(seq uint64, state sprite.State) {
	if m.phase != phaseScheduled || seq != m.seq || m.state != state {
		m.metrics.StaleDiscard("timer")
		return
	}
	m.timer = nil
	next := m.table.next(state)
	m.metrics.Transition(state.String(), next.String())
	m.enter(next)
}

// interrupt reacts to pointer input. Only an active actor sitting in Idle
// responds; everything else, Acknowledge included, ignores it.
func (m *machine) interrupt() {
	if m.phase == phaseStopped || !m.active || m.state != sprite.Idle {
		return
	}
	m.table.reset()
	m.metrics.Transition(m.state.String(), sprite.Acknowledge.String())
	m.enter(sprite.Acknowledge)
}

// setActive pauses or resumes the cycle. Pausing drops the timer and any
// lookup in flight; resuming schedules straight away if the current asset
// has already loaded.
func (m *machine) setActive(on bool) {
	if m.phase == phaseStopped || m.active == on {
		return
	}
	m.active = on
	if !on {
		m.cancelTimer()
		m.seq++
		m.phase = phaseAwaitingRender
		return
	}
	if m.loaded {
		m.schedule()
	}
}

// stop tears the machine down. Nothing it does afterwards has any effect.
func (m *machine) stop() {
	m.cancelTimer()
	m.seq++
	m.phase = phaseStopped
}

func (m *machine) cancelTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *machine) playback() sprite.Playback {
	return sprite.Playback{State: m.state, Token: m.token}
}
