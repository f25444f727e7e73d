package core

import "math/rand/v2"

// NewRNG creates a deterministic random source using the provided seed.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// uniform returns a float32 drawn uniformly from [min, max).
func uniform(r *rand.Rand, min, max float32) float32 {
	return min + r.Float32()*(max-min)
}

// fillBinary sets every 4-byte pixel of buf to all-0 or all-255.
func fillBinary(r *rand.Rand, buf []uint8) {
	for i := 0; i+3 < len(buf); i += 4 {
		v := uint8(0)
		if r.IntN(2) == 1 {
			v = 255
		}
		buf[i], buf[i+1], buf[i+2], buf[i+3] = v, v, v, v
	}
}

// fillGray sets every 4-byte pixel of buf to one random byte on all channels.
func fillGray(r *rand.Rand, buf []uint8) {
	for i := 0; i+3 < len(buf); i += 4 {
		v := uint8(r.IntN(256))
		buf[i], buf[i+1], buf[i+2], buf[i+3] = v, v, v, v
	}
}
