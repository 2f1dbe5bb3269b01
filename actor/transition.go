package actor

import (
	"github.com/golang/glog"

	"github.com/matt-g-everett/spritetx/sprite"
)

// DefaultIdleLoops is how many times Idle plays before a LookAround.
const DefaultIdleLoops = 2

// transitions is the actor's transition table plus the idle loop counter
// it needs for the counted Idle -> LookAround rule.
type transitions struct {
	idleLoops int
	threshold int
}

func newTransitions(threshold int) transitions {
	if threshold <= 0 {
		threshold = DefaultIdleLoops
	}
	return transitions{threshold: threshold}
}

// next returns the state that follows s when s finishes playing naturally.
// A state outside the enum recovers to Idle.
func (t *transitions) next(s sprite.State) sprite.State {
	switch s {
	case sprite.Idle:
		t.idleLoops++
		if t.idleLoops >= t.threshold {
			t.idleLoops = 0
			return sprite.LookAround
		}
		return sprite.Idle
	case sprite.LookAround, sprite.Acknowledge, sprite.Greeting:
		t.idleLoops = 0
		return sprite.Idle
	default:
		glog.Errorf("actor: no transition for %s, returning to idle", s)
		t.idleLoops = 0
		return sprite.Idle
	}
}

// reset clears the idle loop counter. Called when Idle is left by anything
// other than its own loop-back.
func (t *transitions) reset() {
	t.idleLoops = 0
}
