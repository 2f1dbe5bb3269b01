package splash

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matt-g-everett/spritetx/sprite"
	"github.com/matt-g-everett/spritetx/util"
)

// Fade defaults.
const (
	DefaultFade      = 500 * time.Millisecond
	DefaultFrameRate = 30.0
)

// Sink receives the fade-in of the actor surface.
type Sink interface {
	Visibility(opacity float64, backdrop colorful.Color)
}

// Activator is the actor the gate releases.
type Activator interface {
	SetActive(on bool)
}

// Durations resolves the unfloored length of a state's asset.
type Durations interface {
	Raw(ctx context.Context, state sprite.State) time.Duration
}

// Options configures a Gate.
type Options struct {
	Durations Durations
	Actor     Activator
	Sinks     []Sink
	Clock     clock.Clock
	Fade      time.Duration
	FrameRate float64
	// Surface is the backdrop before the fade; Backdrop is where it ends.
	Surface  colorful.Color
	Backdrop colorful.Color
}

// Gate holds the actor back while the greeting plays once, then activates
// it and fades its surface in.
type Gate struct {
	durations Durations
	actor     Activator
	sinks     []Sink
	clock     clock.Clock
	fade      time.Duration
	frameRate float64
	surface   colorful.Color
	backdrop  colorful.Color
}

// NewGate creates a Gate.
func NewGate(opts Options) *Gate {
	g := new(Gate)
	g.durations = opts.Durations
	g.actor = opts.Actor
	g.sinks = opts.Sinks
	g.clock = opts.Clock
	if g.clock == nil {
		g.clock = clock.New()
	}
	g.fade = opts.Fade
	if g.fade <= 0 {
		g.fade = DefaultFade
	}
	g.frameRate = opts.FrameRate
	if g.frameRate <= 0 {
		g.frameRate = DefaultFrameRate
	}
	g.surface = opts.Surface
	g.backdrop = opts.Backdrop
	return g
}

// Run waits out one play of the greeting, activates the actor and runs the
// fade. It returns early, leaving the actor inactive, if ctx is done first.
func (g *Gate) Run(ctx context.Context) error {
	d := g.durations.Raw(ctx, sprite.Greeting)
	glog.Infof("splash: greeting plays for %v", d)

	g.emit(0)
	timer := g.clock.Timer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil
	case <-timer.C:
	}

	g.actor.SetActive(true)

	steps := int(g.fade.Seconds()*g.frameRate) + 1
	lut := util.FadeLut(steps)
	interval := g.fade / time.Duration(len(lut))
	ticker := g.clock.Ticker(interval)
	defer ticker.Stop()

	for i, v := range lut {
		g.emit(v)
		if i == len(lut)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// emit sends one frame, blending the backdrop from the surface colour by opacity.
func (g *Gate) emit(opacity float64) {
	backdrop := g.surface.BlendHcl(g.backdrop, opacity).Clamped()
	for _, s := range g.sinks {
		s.Visibility(opacity, backdrop)
	}
}
