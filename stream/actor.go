package stream

import (
	"github.com/matt-g-everett/spritetx/sprite"
)

// An Actor is the character a render adapter shows and reports back to.
type Actor interface {
	ID() string
	NotifyAssetLoaded(token sprite.Token)
	Interrupt()
	Subscribe() (<-chan sprite.Playback, func())
}
