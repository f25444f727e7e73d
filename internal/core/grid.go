package core

import "errors"

// ErrSizeMismatch reports a buffer whose dimensions differ from the target.
var ErrSizeMismatch = errors.New("buffer size mismatch")

// StateBuffer stores a W x H grid of RGBA pixels in row-major order. Row 0 is
// the bottom row of the displayed image.
type StateBuffer struct {
	W, H int
	Pix  []uint8
}

// NewStateBuffer allocates a zeroed buffer with the given dimensions.
func NewStateBuffer(w, h int) StateBuffer {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return StateBuffer{W: w, H: h, Pix: make([]uint8, w*h*4)}
}

// Size returns the buffer dimensions.
func (b StateBuffer) Size() Size { return Size{W: b.W, H: b.H} }

// Index returns the byte offset of pixel (x, y).
func (b StateBuffer) Index(x, y int) int { return (y*b.W + x) * 4 }

// Set writes v into all four channels of pixel (x, y).
func (b StateBuffer) Set(x, y int, v uint8) {
	i := b.Index(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = v, v, v, v
}

// At returns the red channel of pixel (x, y).
func (b StateBuffer) At(x, y int) uint8 { return b.Pix[b.Index(x, y)] }

// Validate checks that Pix holds exactly W*H pixels.
func (b StateBuffer) Validate() error {
	if b.W <= 0 || b.H <= 0 || len(b.Pix) != b.W*b.H*4 {
		return ErrSizeMismatch
	}
	return nil
}

// Patch returns a w*h*4 byte block with every channel set to v.
func Patch(w, h int, v uint8) []uint8 {
	buf := make([]uint8, w*h*4)
	if v != 0 {
		for i := range buf {
			buf[i] = v
		}
	}
	return buf
}
