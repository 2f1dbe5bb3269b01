package stream

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const visibilityFrameLen = 5

// VisibilityFrame is one step of the actor surface fading in: its opacity
// and the colour to paint behind the sprite.
type VisibilityFrame struct {
	Opacity  float64
	Backdrop colorful.Color
}

// InterpolateBackdrop blends from one backdrop to another in HCL space.
func InterpolateBackdrop(from, to colorful.Color, t float64) colorful.Color {
	return from.BlendHcl(to, t).Clamped()
}

// MarshalBinary encodes the frame as a little-endian uint16 opacity in
// thousandths followed by the backdrop's RGB bytes.
func (f *VisibilityFrame) MarshalBinary() (data []byte, err error) {
	data = make([]byte, 2, visibilityFrameLen)
	opacity := math.Max(0, math.Min(1, f.Opacity))
	binary.LittleEndian.PutUint16(data, uint16(math.Round(opacity*1000)))
	r, g, b := f.Backdrop.Clamped().RGB255()
	data = append(data, r, g, b)
	return data, nil
}

// UnmarshalBinary decodes a frame written by MarshalBinary.
func (f *VisibilityFrame) UnmarshalBinary(data []byte) error {
	if len(data) != visibilityFrameLen {
		return errors.New("visibility frame: wrong length")
	}
	f.Opacity = float64(binary.LittleEndian.Uint16(data)) / 1000.0
	f.Backdrop = colorful.Color{
		R: float64(data[2]) / 255.0,
		G: float64(data[3]) / 255.0,
		B: float64(data[4]) / 255.0,
	}
	return nil
}

// Message returns the JSON form of the frame.
func (f *VisibilityFrame) Message(actorID string) VisibilityMessage {
	return VisibilityMessage{
		Message:  Message{Type: TypeVisibility, Actor: actorID},
		Opacity:  f.Opacity,
		Backdrop: f.Backdrop.Clamped().Hex(),
	}
}
