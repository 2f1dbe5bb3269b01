package sprite_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/spritetx/sprite"
)

func TestParseStateRoundTripsNames(t *testing.T) {
	for _, s := range sprite.States() {
		parsed, err := sprite.ParseState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := sprite.ParseState("dance")
	assert.Error(t, err)
}

func TestStateTextForms(t *testing.T) {
	b, err := json.Marshal(map[sprite.State]int{sprite.LookAround: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"lookaround":1}`, string(b))

	var s sprite.State
	require.NoError(t, s.UnmarshalText([]byte("acknowledge")))
	assert.Equal(t, sprite.Acknowledge, s)

	_, err = sprite.State(42).MarshalText()
	assert.Error(t, err)
	assert.False(t, sprite.State(42).Valid())
	assert.Equal(t, "state(42)", sprite.State(42).String())
}

func TestSourcesLocatorsAreDistinctAndSorted(t *testing.T) {
	sources := sprite.Sources{
		sprite.Greeting:    "hello.gif",
		sprite.Idle:        "idle.gif",
		sprite.LookAround:  "idle.gif",
		sprite.Acknowledge: "",
	}
	assert.Equal(t, []string{"hello.gif", "idle.gif"}, sources.Locators())
	assert.Equal(t, "idle.gif", sources.Source(sprite.LookAround))
	assert.Equal(t, "", sources.Source(sprite.Acknowledge))
}
