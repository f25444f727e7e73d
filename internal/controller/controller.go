// Package controller holds the user-facing settings of a running automaton
// and turns each change into the smallest set of engine calls: uniforms for
// kernel and colour, a recompile for activation and persistence, a fresh
// state buffer for resets.
package controller

import (
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"

	"convca/internal/config"
	"convca/internal/core"
	"convca/internal/engine"
	"convca/internal/gpu"
	"convca/internal/shader"
)

// Renderer is the engine surface the controller drives.
type Renderer interface {
	Init(surface gpu.Surface, w, h int) error
	Compile(vertex, fragment, activation string) error
	Recompile() error

	SetActivation(src string)
	SetPersistent(on bool)
	SetSkipFrames(on bool)
	SetKernel(k core.Kernel)
	SetColor(c core.Color) error
	SetStrategy(s core.Strategy)
	SetState(buf core.StateBuffer) error

	Start() error
	Stop()
	Step() error
	Update() error
	Display() error
	Refresh() error
	Resize(w, h int) error

	Size() core.Size
}

var _ Renderer = (*engine.Engine)(nil)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRand sets the random source for kernels, colours and states.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithShaders replaces the default Kage header and fragment template.
func WithShaders(vertex, fragment string) Option {
	return func(c *Controller) {
		c.vertex, c.fragment = vertex, fragment
	}
}

// WithPaused makes Init leave the loop stopped.
func WithPaused(paused bool) Option {
	return func(c *Controller) { c.paused = paused }
}

// Controller is the policy layer over a Renderer.
type Controller struct {
	eng Renderer
	log *slog.Logger
	rng *rand.Rand

	vertex, fragment string

	kernel     core.Kernel
	color      core.Color
	strategy   core.Strategy
	activation string
	persistent bool
	skipFrames bool
	symmetry   core.Symmetry
	name       string
	background string

	paused      bool
	initialized bool
}

// New returns a controller with a random kernel and colour, the random
// reset strategy and the identity activation.
func New(eng Renderer, opts ...Option) *Controller {
	c := &Controller{
		eng:        eng,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		rng:        core.NewRNG(1),
		vertex:     shader.KageVertex,
		fragment:   shader.KageFragment,
		strategy:   core.StrategyRandom,
		activation: shader.DefaultActivation,
		background: "#000000",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.kernel = core.GenerateKernel(c.rng, -1, 1, c.symmetry)
	c.color = core.RandomColor(c.rng)
	return c
}

// Init sets up the engine for a w x h grid, compiles the program, loads a
// random state and starts the loop unless the controller is paused.
func (c *Controller) Init(surface gpu.Surface, w, h int) error {
	if err := c.eng.Init(surface, w, h); err != nil {
		return err
	}
	c.initialized = true
	c.eng.SetKernel(c.kernel)
	c.eng.SetPersistent(c.persistent)
	c.eng.SetSkipFrames(c.skipFrames)
	c.eng.SetStrategy(c.strategy)
	if err := c.eng.Compile(c.vertex, c.fragment, c.activation); err != nil {
		return err
	}
	if err := c.eng.SetColor(c.color); err != nil {
		return err
	}
	if err := c.eng.SetState(core.GenerateState(c.rng, w, h, core.StrategyRandom)); err != nil {
		return err
	}
	c.log.Info("controller initialized", "size", core.Size{W: w, H: h}.String(), "kernel", c.kernel, "color", c.color, "paused", c.paused)
	if c.paused {
		return nil
	}
	return c.eng.Start()
}

// Load applies every field set in b, recompiles once and, when reset is
// true, loads a fresh state with the resulting strategy. A random colour
// keeps the current one. The state is reset even if the recompile fails.
func (c *Controller) Load(b config.Bundle, reset bool) error {
	if err := b.Validate(); err != nil {
		return err
	}
	k, hasKernel, err := b.Kernel()
	if err != nil {
		return err
	}
	if b.ResetType != nil {
		c.strategy = core.Strategy(*b.ResetType)
		c.eng.SetStrategy(c.strategy)
	}
	if hasKernel {
		c.kernel = k
	}
	if b.Activation != nil {
		c.activation = *b.Activation
	}
	if b.Color != nil && !b.Color.Random {
		c.color = b.Color.RGB
	}
	c.symmetry = b.Symmetry(c.symmetry)
	if b.SkipFrames != nil {
		c.SetSkipFrames(*b.SkipFrames)
	}
	if b.Persistent != nil {
		c.persistent = *b.Persistent
		c.eng.SetPersistent(c.persistent)
	}
	if b.Name != nil {
		c.name = *b.Name
	}
	if b.BgColor != nil {
		c.background = *b.BgColor
	}

	err = c.Apply(true)
	if reset {
		if rerr := c.ResetState(core.UseCurrent); rerr != nil && err == nil {
			err = rerr
		}
	}
	c.log.Info("bundle loaded", "name", c.name, "strategy", string(c.strategy), "reset", reset, "err", err)
	return err
}

// Apply pushes kernel, colour and activation to the engine and recompiles
// when asked. A running loop is stopped around the change; a paused one is
// redrawn afterwards.
func (c *Controller) Apply(recompile bool) error {
	if !c.initialized {
		return engine.ErrNotInitialized
	}
	if !c.paused {
		c.eng.Stop()
		err := c.apply(recompile)
		if serr := c.eng.Start(); serr != nil {
			return errors.Join(err, serr)
		}
		return err
	}
	err := c.apply(recompile)
	if rerr := c.eng.Refresh(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}

func (c *Controller) apply(recompile bool) error {
	c.eng.SetKernel(c.kernel)
	if err := c.eng.SetColor(c.color); err != nil {
		return err
	}
	c.eng.SetActivation(c.activation)
	if !recompile {
		return nil
	}
	c.log.Debug("recompiling", "activation", c.activation, "persistent", c.persistent)
	return c.eng.Recompile()
}

// SetPersistent toggles trailing and recompiles.
func (c *Controller) SetPersistent(on bool) error {
	c.persistent = on
	c.eng.SetPersistent(on)
	return c.Apply(true)
}

// SetActivation replaces the activation expression and recompiles.
func (c *Controller) SetActivation(src string) error {
	c.activation = src
	return c.Apply(true)
}

// SetKernel replaces the kernel without recompiling.
func (c *Controller) SetKernel(k core.Kernel) error {
	c.kernel = k
	return c.Apply(false)
}

// SetColor changes the display mask through the uniform path only.
func (c *Controller) SetColor(col core.Color) error {
	c.color = col
	return c.eng.SetColor(col)
}

// RandomizeColor picks a new saturated colour.
func (c *Controller) RandomizeColor() error {
	return c.SetColor(core.RandomColor(c.rng))
}

// RandomizeKernel draws a new kernel in [-1,1] under the current symmetry.
func (c *Controller) RandomizeKernel() error {
	c.kernel = core.GenerateKernel(c.rng, -1, 1, c.symmetry)
	c.log.Debug("kernel randomized", "kernel", c.kernel, "symmetry", c.symmetry)
	return c.Apply(false)
}

// SetSymmetry records the flags used by the next RandomizeKernel.
func (c *Controller) SetSymmetry(s core.Symmetry) { c.symmetry = s }

// SetSkipFrames toggles multiple update passes per displayed frame.
func (c *Controller) SetSkipFrames(on bool) {
	c.skipFrames = on
	c.eng.SetSkipFrames(on)
}

// ResetState loads a freshly generated state. UseCurrent reuses the
// configured strategy; empty clears the grid without replacing it.
func (c *Controller) ResetState(s core.Strategy) error {
	if !c.initialized {
		return engine.ErrNotInitialized
	}
	if s == core.UseCurrent {
		s = c.strategy
	}
	if s != core.StrategyEmpty {
		c.strategy = s
		c.eng.SetStrategy(s)
	}
	size := c.eng.Size()
	return c.eng.SetState(core.GenerateState(c.rng, size.W, size.H, s))
}

// PauseToggle flips the paused flag.
func (c *Controller) PauseToggle() error { return c.SetPaused(!c.paused) }

// SetPaused stops or restarts the loop. Setting the current value does
// nothing.
func (c *Controller) SetPaused(paused bool) error {
	if c.paused == paused {
		return nil
	}
	c.paused = paused
	if !c.initialized {
		return nil
	}
	if paused {
		c.eng.Stop()
		return nil
	}
	return c.eng.Start()
}

// Step runs one update and display pass.
func (c *Controller) Step() error { return c.eng.Step() }

// OffsetSkippedFrame runs one extra update and display pass, shifting the
// phase of a frame-skipping loop by one tick.
func (c *Controller) OffsetSkippedFrame() error {
	if err := c.eng.Update(); err != nil {
		return err
	}
	return c.eng.Display()
}

// Resize forwards a viewport change to the engine.
func (c *Controller) Resize(w, h int) error { return c.eng.Resize(w, h) }

func (c *Controller) Paused() bool { return c.paused }
func (c *Controller) Kernel() core.Kernel { return c.kernel }
func (c *Controller) Color() core.Color { return c.color }
func (c *Controller) Strategy() core.Strategy { return c.strategy }
func (c *Controller) Activation() string { return c.activation }
func (c *Controller) Persistent() bool { return c.persistent }
func (c *Controller) SkipFrames() bool { return c.skipFrames }
func (c *Controller) Symmetry() core.Symmetry { return c.symmetry }
func (c *Controller) Name() string { return c.name }
func (c *Controller) Background() string { return c.background }
