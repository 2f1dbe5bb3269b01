package stream

import (
	"encoding/json"
	"fmt"

	"github.com/matt-g-everett/spritetx/sprite"
)

// Message types exchanged with render adapters.
const (
	TypePlayback   = "playback"
	TypeLoaded     = "loaded"
	TypePointer    = "pointer"
	TypeVisibility = "visibility"
)

// Message is the base every render message embeds.
type Message struct {
	Type  string `json:"type"`
	Actor string `json:"actor,omitempty"`
}

// PlaybackMessage tells a render adapter which asset to show.
type PlaybackMessage struct {
	Message
	State  string       `json:"state"`
	Token  sprite.Token `json:"token"`
	Source string       `json:"source,omitempty"`
}

// AckMessage reports that the asset for Token has loaded.
type AckMessage struct {
	Message
	Token sprite.Token `json:"token"`
}

// PointerMessage carries a click or tap on the render surface.
type PointerMessage struct {
	Message
}

// VisibilityMessage is the JSON form of a VisibilityFrame.
type VisibilityMessage struct {
	Message
	Opacity  float64 `json:"opacity"`
	Backdrop string  `json:"backdrop"`
}

// NewPlaybackMessage builds the announcement for pb.
func NewPlaybackMessage(actorID string, pb sprite.Playback, source string) PlaybackMessage {
	return PlaybackMessage{
		Message: Message{Type: TypePlayback, Actor: actorID},
		State:   pb.State.String(),
		Token:   pb.Token,
		Source:  source,
	}
}

// Inbound is a decoded message from a render adapter.
type Inbound struct {
	Type  string
	Actor string
	Token sprite.Token
}

// DecodeInbound parses a loaded or pointer message.
func DecodeInbound(payload []byte) (Inbound, error) {
	var ack AckMessage
	if err := json.Unmarshal(payload, &ack); err != nil {
		return Inbound{}, fmt.Errorf("decode message: %w", err)
	}
	switch ack.Type {
	case TypeLoaded, TypePointer:
	default:
		return Inbound{}, fmt.Errorf("unexpected message type %q", ack.Type)
	}
	return Inbound{Type: ack.Type, Actor: ack.Actor, Token: ack.Token}, nil
}

// For reports whether the message is addressed to actorID. Messages with no
// actor address every actor.
func (in Inbound) For(actorID string) bool {
	return in.Actor == "" || in.Actor == actorID
}
