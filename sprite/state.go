package sprite

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// State is one named phase of a character's behaviour. Each state has its
// own animation asset and duration.
type State uint8

const (
	Greeting State = iota
	Idle
	LookAround
	Acknowledge
)

var stateNames = [...]string{
	Greeting:    "greeting",
	Idle:        "idle",
	LookAround:  "lookaround",
	Acknowledge: "acknowledge",
}

// States lists every state in declaration order.
func States() []State {
	return []State{Greeting, Idle, LookAround, Acknowledge}
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	return int(s) < len(stateNames)
}

// ParseState converts a state name back into a State.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}

// MarshalText lets states be used as YAML and JSON map keys.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Token identifies a single entry into a state. A new one is minted on every
// state change, including a state looping back to itself.
type Token uint64

// Playback is what a render adapter needs to show the actor: the state to
// draw and the token that forces the asset to restart from its first frame.
type Playback struct {
	State State `json:"state"`
	Token Token `json:"token"`
}

// Sources maps each state to the locator of its animation asset.
type Sources map[State]string

// Source returns the locator for a state, or "" if none is configured.
func (s Sources) Source(state State) string {
	return s[state]
}

// Locators returns the distinct locators in a stable order.
func (s Sources) Locators() []string {
	locs := lo.Uniq(lo.Filter(lo.Values(s), func(l string, _ int) bool { return l != "" }))
	sort.Strings(locs)
	return locs
}
