package gifscan

import (
	"encoding/binary"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	blockExtension  = 0x21
	blockImage      = 0x2C
	blockTrailer    = 0x3B
	labelGraphicCtl = 0xF9

	headerSize          = 6
	screenDescriptorLen = 7
	imageDescriptorLen  = 9

	// DefaultFrameDelay applies to frames that appear before any graphic
	// control block.
	DefaultFrameDelay = 100 * time.Millisecond
	// MinFrameDelay is the smallest delay a frame is given. Zero and tiny
	// delays are encoder noise, not instant frames.
	MinFrameDelay = 20 * time.Millisecond
)

// Timeline is the result of walking a GIF stream.
type Timeline struct {
	Frames   int
	Duration time.Duration
	// Encoded is the sum of the delays as written, before clamping. It is
	// zero when every frame declares a zero delay.
	Encoded time.Duration
	// Truncated is set when a structural read ran past the end of the
	// buffer. Duration then only covers the frames seen before that point.
	Truncated bool
	// Background is the global colour table entry at the background index.
	// HasBackground is false when the stream has no global table.
	Background    colorful.Color
	HasBackground bool
}

// reader is a cursor over the stream. Every read checks bounds first and
// latches truncated instead of panicking.
type reader struct {
	b         []byte
	off       int
	truncated bool
}

func (r *reader) ensure(n int) bool {
	if r.off+n <= len(r.b) {
		return true
	}
	r.off = len(r.b)
	r.truncated = true
	return false
}

func (r *reader) byte() (byte, bool) {
	if !r.ensure(1) {
		return 0, false
	}
	c := r.b[r.off]
	r.off++
	return c, true
}

func (r *reader) skip(n int) bool {
	if !r.ensure(n) {
		return false
	}
	r.off += n
	return true
}

// skipSubBlocks skips size-prefixed sub-blocks up to and including the zero
// length terminator.
func (r *reader) skipSubBlocks() bool {
	for {
		size, ok := r.byte()
		if !ok {
			return false
		}
		if size == 0 {
			return true
		}
		if !r.skip(int(size)) {
			return false
		}
	}
}

func (r *reader) done() bool {
	return r.off >= len(r.b)
}

func colorTableSize(packed byte) int {
	if packed&0x80 == 0 {
		return 0
	}
	return 3 * (1 << ((packed & 0x07) + 1))
}

func encodedDelay(centis uint16) time.Duration {
	return time.Duration(centis) * 10 * time.Millisecond
}

func frameDelay(encoded time.Duration) time.Duration {
	if encoded < MinFrameDelay {
		return MinFrameDelay
	}
	return encoded
}

// Scan walks a GIF87a/GIF89a byte stream and sums the delay of every frame.
// It never fails; anomalies are reported through Timeline.Truncated.
func Scan(b []byte) Timeline {
	var t Timeline
	r := &reader{b: b}

	if !r.skip(headerSize) || !r.ensure(screenDescriptorLen) {
		t.Truncated = true
		return t
	}
	packed := r.b[r.off+4]
	bgIndex := int(r.b[r.off+5])
	r.off += screenDescriptorLen

	if gct := colorTableSize(packed); gct > 0 {
		if !r.ensure(gct) {
			t.Truncated = true
			return t
		}
		if bgIndex*3+2 < gct {
			c := r.b[r.off+bgIndex*3 : r.off+bgIndex*3+3]
			t.Background = colorful.Color{R: float64(c[0]) / 255.0, G: float64(c[1]) / 255.0, B: float64(c[2]) / 255.0}
			t.HasBackground = true
		}
		r.off += gct
	}

	delay, encoded := DefaultFrameDelay, DefaultFrameDelay
scan:
	for !r.done() {
		id, _ := r.byte()
		switch id {
		case blockTrailer:
			break scan
		case blockExtension:
			label, ok := r.byte()
			if !ok {
				break scan
			}
			if label != labelGraphicCtl {
				if !r.skipSubBlocks() {
					break scan
				}
				continue
			}
			size, ok := r.byte()
			if !ok {
				break scan
			}
			if size == 4 && r.ensure(4) {
				encoded = encodedDelay(binary.LittleEndian.Uint16(r.b[r.off+1 : r.off+3]))
				delay = frameDelay(encoded)
			}
			if !r.skip(int(size)) {
				break scan
			}
			if !r.skipSubBlocks() {
				break scan
			}
		case blockImage:
			if !r.skip(imageDescriptorLen - 1) {
				break scan
			}
			local, ok := r.byte()
			if !ok {
				break scan
			}
			if !r.skip(colorTableSize(local)) {
				break scan
			}
			// LZW minimum code size
			if !r.skip(1) {
				break scan
			}
			if !r.skipSubBlocks() {
				break scan
			}
			t.Frames++
			t.Duration += delay
			t.Encoded += encoded
		default:
			if !r.skipSubBlocks() {
				break scan
			}
		}
	}

	t.Truncated = r.truncated
	return t
}

// Extract returns the total playback duration of a GIF, or fallback with
// ok=false when the stream is truncated, has no frames or declares only zero
// delays.
func Extract(b []byte, fallback time.Duration) (d time.Duration, ok bool) {
	t := Scan(b)
	if t.Truncated || t.Encoded <= 0 {
		return fallback, false
	}
	return t.Duration, true
}
