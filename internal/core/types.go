package core

import (
	"fmt"
	"log/slog"
)

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// Pixels returns the number of cells in the grid.
func (s Size) Pixels() int { return s.W * s.H }

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool { return s.W > 0 && s.H > 0 }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.W, s.H) }

// Kernel holds the nine weights of a 3x3 convolution in row-major order.
// Index (dy+1)*3 + (dx+1) weights the neighbour at row offset dy and column
// offset dx.
type Kernel [9]float32

// KernelFrom copies weights into a Kernel. It fails unless exactly nine
// values are provided.
func KernelFrom(weights []float64) (Kernel, error) {
	var k Kernel
	if len(weights) != len(k) {
		return k, fmt.Errorf("kernel needs %d weights, got %d", len(k), len(weights))
	}
	for i, w := range weights {
		k[i] = float32(w)
	}
	return k, nil
}

// LogValue implements slog.LogValuer.
func (k Kernel) LogValue() slog.Value {
	return slog.StringValue(fmt.Sprintf("[%.3f %.3f %.3f | %.3f %.3f %.3f | %.3f %.3f %.3f]",
		k[0], k[1], k[2], k[3], k[4], k[5], k[6], k[7], k[8]))
}

// Color is an RGB multiplier applied by the display pass.
type Color [3]float32

// LogValue implements slog.LogValuer.
func (c Color) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("r", float64(c[0])),
		slog.Float64("g", float64(c[1])),
		slog.Float64("b", float64(c[2])),
	)
}

// Symmetry selects the constraints applied to a freshly generated kernel.
type Symmetry struct {
	Horizontal bool
	Vertical   bool
	Full       bool
}
