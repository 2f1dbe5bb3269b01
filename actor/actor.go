package actor

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/matt-g-everett/spritetx/metrics"
	"github.com/matt-g-everett/spritetx/sprite"
)

const mailboxSize = 64

// Options configures an Actor.
type Options struct {
	// ID names the actor on the wire. A random one is generated if empty.
	ID        string
	Durations DurationSource
	Clock     clock.Clock
	Metrics   *metrics.Metrics
	// Initial is the first state entered. Defaults to Idle.
	Initial *sprite.State
	// IdleLoops is how many Idle plays come before a LookAround.
	IdleLoops int
	// Inactive starts the actor paused until SetActive(true).
	Inactive bool
}

// An Actor drives one character through its states. All state lives on the
// goroutine running Run; the exported methods post work to it.
type Actor struct {
	id      string
	initial sprite.State
	m       *machine
	mailbox chan func()
	done    chan struct{}

	mu       sync.RWMutex
	current  sprite.Playback
	watchers map[chan sprite.Playback]struct{}
}

// New creates an Actor. It does nothing until Run is called.
func New(opts Options) *Actor {
	a := new(Actor)
	a.id = opts.ID
	if a.id == "" {
		a.id = uuid.New().String()
	}
	a.initial = sprite.Idle
	if opts.Initial != nil {
		a.initial = *opts.Initial
	}
	a.mailbox = make(chan func(), mailboxSize)
	a.done = make(chan struct{})
	a.watchers = make(map[chan sprite.Playback]struct{})

	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	a.m = &machine{
		id:        a.id,
		clock:     clk,
		durations: opts.Durations,
		dispatch:  a.dispatch,
		publish:   a.publish,
		metrics:   opts.Metrics,
		ctx:       context.Background(),
		active:    !opts.Inactive,
		table:     newTransitions(opts.IdleLoops),
	}
	return a
}

// ID returns the actor's name.
func (a *Actor) ID() string {
	return a.id
}

// Run enters the initial state and processes events until ctx is done. On
// return the pending timer is cancelled and later events are ignored. Run
// must be called at most once.
func (a *Actor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(a.done)

	a.m.ctx = ctx
	a.m.start(a.initial)
	glog.Infof("actor %s: running from %s", a.id, a.initial)

	for {
		select {
		case <-ctx.Done():
			a.m.stop()
			glog.Infof("actor %s: stopped", a.id)
			return nil
		case ev := <-a.mailbox:
			ev()
		}
	}
}

// dispatch queues ev for the run loop. Once the loop has exited it is a no-op.
func (a *Actor) dispatch(ev func()) {
	select {
	case <-a.done:
		return
	default:
	}
	select {
	case a.mailbox <- ev:
	case <-a.done:
	}
}

// NotifyAssetLoaded reports that the asset for token is showing. Extra or
// late calls are ignored.
func (a *Actor) NotifyAssetLoaded(token sprite.Token) {
	a.dispatch(func() { a.m.assetLoaded(token) })
}

// Interrupt delivers a pointer event.
func (a *Actor) Interrupt() {
	a.dispatch(func() { a.m.interrupt() })
}

// SetActive pauses or resumes the actor.
func (a *Actor) SetActive(on bool) {
	a.dispatch(func() { a.m.setActive(on) })
}

// Playback returns the state and token currently on display.
func (a *Actor) Playback() sprite.Playback {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Subscribe returns a channel that receives every playback change, starting
// with the current one once Run has begun. A slow reader only ever misses
// intermediate values, never the latest. Call the returned func to stop.
func (a *Actor) Subscribe() (<-chan sprite.Playback, func()) {
	ch := make(chan sprite.Playback, 1)
	a.mu.Lock()
	a.watchers[ch] = struct{}{}
	if a.current.Token != 0 {
		ch <- a.current
	}
	a.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.watchers, ch)
			a.mu.Unlock()
		})
	}
}

func (a *Actor) publish(pb sprite.Playback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = pb
	for ch := range a.watchers {
		// Replace whatever the reader has not taken yet.
		select {
		case <-ch:
		default:
		}
		ch <- pb
	}
}
