package core

import "math/rand/v2"

// RandomColor returns three uniform channels in [0,1] with one randomly
// chosen channel forced to full intensity, so results are never near-black.
func RandomColor(r *rand.Rand) Color {
	var c Color
	for i := range c {
		c[i] = r.Float32()
	}
	c[r.IntN(len(c))] = 1
	return c
}

// White is the neutral display mask.
var White = Color{1, 1, 1}
