// Package headless runs bundles on the software device without a window.
// It backs the snapshot and sweep tools and reports simple activity
// telemetry used to compare rules.
package headless

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"convca/internal/config"
	"convca/internal/controller"
	"convca/internal/core"
	"convca/internal/engine"
	"convca/internal/render"
)

// ErrStalled reports a frame loop that stopped on its own.
var ErrStalled = errors.New("headless: frame loop stopped")

// Options describes one deterministic run.
type Options struct {
	Width  int
	Height int
	Frames int
	Seed   int64
	Bundle config.Bundle
	// Kernel replaces the bundle filter when set.
	Kernel *core.Kernel
	Logger *slog.Logger
}

// Result captures telemetry from a run.
type Result struct {
	Name   string
	Kernel core.Kernel
	Color  core.Color
	// Frames is the number of displayed frames; Ticks counts update passes
	// and exceeds Frames when frame skip is on.
	Frames int
	Ticks  uint64
	// MeanLevel is the average cell value in [0,1] after the last frame.
	MeanLevel float64
	// PeakLevel is the largest MeanLevel seen on any frame.
	PeakLevel float64
	// Activity is the mean fraction of cells that changed per frame.
	Activity float64
	// LastActiveFrame is the last frame that changed at least one cell.
	LastActiveFrame int
	State           core.StateBuffer
	Image           *image.RGBA
}

// Score ranks results for sweeps: rules that keep changing without
// saturating or dying out score highest.
func (r Result) Score() float64 {
	balance := 1 - 2*abs(r.MeanLevel-0.5)
	return r.Activity * balance
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Run builds a software engine and controller, loads the bundle with a
// reset and advances Frames frames through the frame queue.
func Run(opts Options) (Result, error) {
	size := core.Size{W: opts.Width, H: opts.Height}
	if !size.Valid() {
		return Result{}, fmt.Errorf("headless: invalid size %v", size)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rng := core.NewRNG(opts.Seed)
	dev := render.NewSoftware()
	surface, err := dev.NewSurface(size)
	if err != nil {
		return Result{}, err
	}
	queue := &engine.FrameQueue{}
	eng := engine.New(dev, queue, engine.WithLogger(log), engine.WithRand(rng))
	ctl := controller.New(eng, controller.WithLogger(log), controller.WithRand(rng))
	if err := ctl.Init(surface, size.W, size.H); err != nil {
		return Result{}, err
	}
	defer eng.Close()

	if err := ctl.Load(opts.Bundle, true); err != nil {
		return Result{}, err
	}
	if opts.Kernel != nil {
		if err := ctl.SetKernel(*opts.Kernel); err != nil {
			return Result{}, err
		}
	}

	res := Result{Name: ctl.Name(), Kernel: ctl.Kernel(), Color: ctl.Color()}
	prev, err := eng.State()
	if err != nil {
		return Result{}, err
	}
	var changedSum float64
	for frame := 1; frame <= opts.Frames; frame++ {
		queue.RunFrame()
		if eng.RunState() != engine.Running {
			return Result{}, fmt.Errorf("%w at frame %d: %s", ErrStalled, frame, eng.Diagnostic())
		}
		cur, err := eng.State()
		if err != nil {
			return Result{}, err
		}
		mean, changed := Compare(prev, cur)
		changedSum += changed
		if changed > 0 {
			res.LastActiveFrame = frame
		}
		if mean > res.PeakLevel {
			res.PeakLevel = mean
		}
		res.MeanLevel = mean
		res.Frames = frame
		prev = cur
	}
	if opts.Frames > 0 {
		res.Activity = changedSum / float64(opts.Frames)
	} else {
		res.MeanLevel, _ = Compare(prev, prev)
	}
	res.Ticks = eng.Ticks()
	res.State = prev
	res.Image = surface.Image()
	log.Debug("headless run finished", "name", res.Name, "frames", res.Frames, "ticks", res.Ticks, "activity", res.Activity)
	return res, nil
}

// Compare returns the mean level of cur and the fraction of cells whose
// value differs from prev. Buffers of different sizes count as fully
// changed.
func Compare(prev, cur core.StateBuffer) (mean, changed float64) {
	cells := cur.W * cur.H
	if cells == 0 {
		return 0, 0
	}
	same := prev.Size() == cur.Size()
	var sum, diff int
	for i := 0; i < len(cur.Pix); i += 4 {
		sum += int(cur.Pix[i])
		if !same || prev.Pix[i] != cur.Pix[i] {
			diff++
		}
	}
	return float64(sum) / float64(cells*255), float64(diff) / float64(cells)
}
