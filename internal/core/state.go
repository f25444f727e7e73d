package core

import (
	"math/rand/v2"
	"sort"
)

// Strategy names a rule for building an initial state buffer.
type Strategy string

const (
	// UseCurrent asks the caller to keep its configured strategy.
	UseCurrent Strategy = ""

	StrategyRandom     Strategy = "random"
	StrategyRandomBool Strategy = "random_bool"
	StrategyCenter     Strategy = "center"
	StrategyCenterTop  Strategy = "center_top"
	StrategyEmpty      Strategy = "empty"
)

// Generator fills a zeroed buffer according to a strategy.
type Generator func(r *rand.Rand, buf StateBuffer)

var strategies = map[Strategy]Generator{}

// Register adds a state generator under the provided name.
func Register(name Strategy, g Generator) {
	if name == UseCurrent || g == nil {
		return
	}
	strategies[name] = g
}

// Strategies lists the registered strategy names in sorted order.
func Strategies() []Strategy {
	names := make([]Strategy, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Known reports whether name is a registered strategy.
func Known(name Strategy) bool {
	_, ok := strategies[name]
	return ok
}

// GenerateState builds a w x h buffer using the named strategy. Unknown
// names yield an all-zero buffer.
func GenerateState(r *rand.Rand, w, h int, name Strategy) StateBuffer {
	buf := NewStateBuffer(w, h)
	if g, ok := strategies[name]; ok {
		g(r, buf)
	}
	return buf
}

// centerIndex returns the byte offset of the lit pixel for the center
// strategy. The naive midpoint lands at column 0 of row H/2 when H is even,
// so it is moved forward by half a row (W*2 bytes) onto the geometric
// centre.
func centerIndex(w, h int) int {
	idx := (w * h / 2) * 4
	if h%2 == 0 {
		idx += (w / 2) * 4
	}
	return idx
}

func init() {
	Register(StrategyRandom, func(r *rand.Rand, buf StateBuffer) { fillGray(r, buf.Pix) })
	Register(StrategyRandomBool, func(r *rand.Rand, buf StateBuffer) { fillBinary(r, buf.Pix) })
	Register(StrategyCenter, func(_ *rand.Rand, buf StateBuffer) {
		i := centerIndex(buf.W, buf.H)
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = 255, 255, 255, 255
	})
	Register(StrategyCenterTop, func(_ *rand.Rand, buf StateBuffer) {
		buf.Set(buf.W/2, 0, 255)
	})
	Register(StrategyEmpty, func(*rand.Rand, StateBuffer) {})
}
