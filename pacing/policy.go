package pacing

import (
	"context"
	"time"

	"github.com/matt-g-everett/spritetx/sprite"
)

// Extractor resolves a source's duration, returning fallback on failure.
type Extractor interface {
	Extract(ctx context.Context, src string, fallback time.Duration) time.Duration
}

// DefaultDurations are used both as the fallback when a source cannot be
// parsed and as the floor a state is never shown for less than.
var DefaultDurations = map[sprite.State]time.Duration{
	sprite.Greeting:    6000 * time.Millisecond,
	sprite.Idle:        2000 * time.Millisecond,
	sprite.LookAround:  3200 * time.Millisecond,
	sprite.Acknowledge: 2600 * time.Millisecond,
}

// Policy decides how long each state is displayed.
type Policy struct {
	sources   sprite.Sources
	fallbacks map[sprite.State]time.Duration
	floors    map[sprite.State]time.Duration
	extractor Extractor
}

// NewPolicy creates a Policy. Missing fallbacks or floors come from
// DefaultDurations.
func NewPolicy(sources sprite.Sources, fallbacks, floors map[sprite.State]time.Duration, extractor Extractor) *Policy {
	p := new(Policy)
	p.sources = sources
	p.fallbacks = withDefaults(fallbacks)
	p.floors = withDefaults(floors)
	p.extractor = extractor
	return p
}

func withDefaults(in map[sprite.State]time.Duration) map[sprite.State]time.Duration {
	out := make(map[sprite.State]time.Duration, len(DefaultDurations))
	for s, d := range DefaultDurations {
		out[s] = d
	}
	for s, d := range in {
		if d > 0 {
			out[s] = d
		}
	}
	return out
}

// Fallback returns the duration used when a state's source cannot be read.
func (p *Policy) Fallback(state sprite.State) time.Duration {
	return p.fallbacks[state]
}

// Floor returns the minimum time a state is displayed for.
func (p *Policy) Floor(state sprite.State) time.Duration {
	return p.floors[state]
}

// Raw returns the extracted duration of a state's source, or its fallback.
func (p *Policy) Raw(ctx context.Context, state sprite.State) time.Duration {
	src := p.sources.Source(state)
	if src == "" || p.extractor == nil {
		return p.Fallback(state)
	}
	return p.extractor.Extract(ctx, src, p.Fallback(state))
}

// Duration returns how long state should be displayed: its extracted or
// fallback duration, never less than its floor.
func (p *Policy) Duration(ctx context.Context, state sprite.State) time.Duration {
	d := p.Raw(ctx, state)
	if floor := p.Floor(state); d < floor {
		return floor
	}
	return d
}
