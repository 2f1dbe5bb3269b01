package util

import (
	"github.com/fogleman/ease"
)

// FadeLut returns length eased steps rising from 0 to 1 inclusive.
func FadeLut(length int) []float64 {
	if length < 2 {
		return []float64{1.0}
	}
	increment := 1.0 / float64(length-1)
	lut := make([]float64, length)
	for i := 0; i < length; i++ {
		lut[i] = ease.InOutQuad(float64(i) * increment)
	}
	lut[length-1] = 1.0
	return lut
}
