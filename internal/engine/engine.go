// Package engine drives a convolution automaton on a gpu.Device. It owns
// the compiled program, the load texture and the two ping-pong textures, and
// runs the frame loop through a host Scheduler. All methods must be called
// from the host's single update goroutine.
package engine

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math/rand/v2"

	"convca/internal/core"
	"convca/internal/gpu"
	"convca/internal/shader"
)

// RunState is the lifecycle state of an Engine.
type RunState int

const (
	Uninitialized RunState = iota
	Paused
	Running
)

func (s RunState) String() string {
	switch s {
	case Paused:
		return "paused"
	case Running:
		return "running"
	default:
		return "uninitialized"
	}
}

var (
	ErrNotInitialized     = errors.New("engine: not initialized")
	ErrAlreadyInitialized = errors.New("engine: already initialized")
	// ErrAlreadyRunning is the panic value of Start on a running engine.
	ErrAlreadyRunning = errors.New("engine: start called while already running")
	ErrNoProgram      = errors.New("engine: no program compiled")
)

const (
	// DefaultBrushSize is the edge length of the paint square in pixels.
	DefaultBrushSize = 25
	// SkipFrameUpdates is the number of update passes per displayed frame
	// when frame skipping is enabled.
	SkipFrameUpdates = 4
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRand sets the random source used to regenerate state on resize.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// Engine is the simulation and display driver.
type Engine struct {
	dev   gpu.Device
	sched Scheduler
	log   *slog.Logger
	rng   *rand.Rand

	state   RunState
	size    core.Size
	surface gpu.Surface
	source  gpu.Texture
	buffers [2]gpu.Texture
	current gpu.Texture

	vertex     string
	fragment   string
	compiled   bool
	program    gpu.Program
	version    uint64
	diagnostic string

	activation string
	persistent bool
	skipFrames bool
	kernel     core.Kernel
	color      core.Color
	strategy   core.Strategy
	brush      int

	frame     FrameID
	scheduled bool
	ticks     uint64
}

// New returns an uninitialized engine.
func New(dev gpu.Device, sched Scheduler, opts ...Option) *Engine {
	e := &Engine{
		dev:      dev,
		sched:    sched,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		rng:      core.NewRNG(1),
		color:    core.White,
		strategy: core.StrategyRandom,
		brush:    DefaultBrushSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init allocates the textures for a w x h grid and leaves the engine
// Paused. It may only be called once until Close.
func (e *Engine) Init(surface gpu.Surface, w, h int) error {
	if e.state != Uninitialized {
		return ErrAlreadyInitialized
	}
	size := core.Size{W: w, H: h}
	if !size.Valid() {
		return fmt.Errorf("engine: invalid size %v", size)
	}
	if err := surface.SetViewport(size); err != nil {
		return fmt.Errorf("engine: viewport: %w", err)
	}
	e.surface = surface
	if err := e.allocate(size); err != nil {
		return err
	}
	e.state = Paused
	e.log.Debug("engine initialized", "device", e.dev.Name(), "size", size.String())
	return nil
}

// Close releases every device resource and returns the engine to
// Uninitialized.
func (e *Engine) Close() {
	e.Stop()
	e.release()
	if e.program != nil {
		e.program.Dispose()
		e.program = nil
	}
	e.state = Uninitialized
}

func (e *Engine) allocate(size core.Size) error {
	e.release()
	var err error
	if e.source, err = e.dev.NewTexture(size); err != nil {
		return fmt.Errorf("engine: allocate source: %w", err)
	}
	for i := range e.buffers {
		if e.buffers[i], err = e.dev.NewTexture(size); err != nil {
			return fmt.Errorf("engine: allocate buffer %d: %w", i, err)
		}
	}
	e.size = size
	e.current = e.source
	return nil
}

func (e *Engine) release() {
	for _, t := range []gpu.Texture{e.source, e.buffers[0], e.buffers[1]} {
		if t != nil {
			t.Dispose()
		}
	}
	e.source, e.buffers, e.current = nil, [2]gpu.Texture{}, nil
}

// Compile builds a program from the vertex and fragment templates. A
// non-empty activation replaces the current activation source. On failure
// the previous program stays active and the diagnostic is returned as a
// *gpu.CompileError.
func (e *Engine) Compile(vertex, fragment, activation string) error {
	if e.state == Uninitialized {
		return ErrNotInitialized
	}
	e.vertex, e.fragment, e.compiled = vertex, fragment, true
	if activation != "" {
		e.activation = activation
	}

	tmpl, err := shader.Parse(vertex, fragment)
	if err != nil {
		return e.fail(&gpu.CompileError{Stage: "template", Log: err.Error()})
	}
	src, err := tmpl.Render(e.activation, e.persistent)
	if err != nil {
		return e.fail(&gpu.CompileError{Stage: "template", Log: err.Error()})
	}
	prog, err := e.dev.Compile(src)
	if err != nil {
		var ce *gpu.CompileError
		if !errors.As(err, &ce) {
			ce = &gpu.CompileError{Stage: "device", Log: err.Error()}
		}
		return e.fail(ce)
	}

	if e.program != nil {
		e.program.Dispose()
	}
	e.program = prog
	e.version++
	e.diagnostic = ""
	e.log.Debug("program compiled", "version", e.version, "activation", src.Activation, "persistent", src.Persistent)
	return nil
}

func (e *Engine) fail(ce *gpu.CompileError) error {
	e.diagnostic = ce.Error()
	e.log.Warn("program compile failed", "stage", ce.Stage, "diagnostic", ce.Log, "kept_version", e.version)
	return ce
}

// Recompile rebuilds the program from the last vertex and fragment texts
// with the current activation source and persistence flag.
func (e *Engine) Recompile() error {
	if e.state == Uninitialized {
		return ErrNotInitialized
	}
	if !e.compiled {
		return ErrNoProgram
	}
	return e.Compile(e.vertex, e.fragment, "")
}

// SetActivation records the activation expression used by the next compile.
func (e *Engine) SetActivation(src string) { e.activation = src }

// SetPersistent records the trailing-mode flag used by the next compile.
func (e *Engine) SetPersistent(on bool) { e.persistent = on }

// SetSkipFrames toggles SkipFrameUpdates update passes per frame.
func (e *Engine) SetSkipFrames(on bool) { e.skipFrames = on }

// SetKernel sets the convolution weights for subsequent draws.
func (e *Engine) SetKernel(k core.Kernel) { e.kernel = k }

// SetColor sets the display mask and redraws the surface.
func (e *Engine) SetColor(c core.Color) error {
	e.color = c
	return e.Refresh()
}

// SetStrategy records the strategy used to regenerate state on resize.
func (e *Engine) SetStrategy(s core.Strategy) { e.strategy = s }

// SetBrush sets the paint square edge length.
func (e *Engine) SetBrush(size int) error {
	if size < 1 {
		return fmt.Errorf("engine: brush size %d must be positive", size)
	}
	e.brush = size
	return nil
}

// SetState loads buf into the load texture, makes it current and displays
// it.
func (e *Engine) SetState(buf core.StateBuffer) error {
	if e.state == Uninitialized {
		return ErrNotInitialized
	}
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("engine: set state: %w", err)
	}
	if buf.Size() != e.size {
		return fmt.Errorf("engine: state %v for %v grid: %w", buf.Size(), e.size, core.ErrSizeMismatch)
	}
	if err := e.source.WritePixels(buf.Pix); err != nil {
		return fmt.Errorf("engine: upload state: %w", err)
	}
	e.current = e.source
	return e.Refresh()
}

// State reads back the current texture.
func (e *Engine) State() (core.StateBuffer, error) {
	if e.state == Uninitialized {
		return core.StateBuffer{}, ErrNotInitialized
	}
	buf := core.NewStateBuffer(e.size.W, e.size.H)
	if err := e.current.ReadPixels(buf.Pix); err != nil {
		return core.StateBuffer{}, fmt.Errorf("engine: read state: %w", err)
	}
	return buf, nil
}

// Start schedules the frame loop. Starting a running engine is a caller
// bug and panics with ErrAlreadyRunning.
func (e *Engine) Start() error {
	switch e.state {
	case Uninitialized:
		return ErrNotInitialized
	case Running:
		panic(ErrAlreadyRunning)
	}
	e.state = Running
	e.schedule()
	return nil
}

// Stop cancels the pending frame. Stopping a paused engine does nothing.
func (e *Engine) Stop() {
	if e.state != Running {
		return
	}
	e.state = Paused
	if e.scheduled {
		e.sched.CancelFrame(e.frame)
		e.scheduled = false
	}
}

func (e *Engine) schedule() {
	e.frame = e.sched.RequestFrame(e.onFrame)
	e.scheduled = true
}

func (e *Engine) onFrame() {
	e.scheduled = false
	if e.state != Running {
		return
	}
	if err := e.frameTick(); err != nil {
		e.log.Error("frame failed, stopping", "err", err)
		e.diagnostic = err.Error()
		e.Stop()
		return
	}
	if e.state == Running && !e.scheduled {
		e.schedule()
	}
}

func (e *Engine) frameTick() error {
	n := 1
	if e.skipFrames {
		n = SkipFrameUpdates
	}
	for i := 0; i < n; i++ {
		if err := e.Update(); err != nil {
			return err
		}
	}
	return e.Display()
}

// Step runs one update and one display pass regardless of RunState.
func (e *Engine) Step() error {
	if err := e.Update(); err != nil {
		return err
	}
	return e.Display()
}

// Update convolves the current texture into the alternate one and makes
// the alternate current.
func (e *Engine) Update() error {
	if err := e.ready(); err != nil {
		return err
	}
	target := e.alternate()
	err := e.dev.Draw(gpu.Pass{
		Program:  e.program,
		Source:   e.current,
		Target:   target,
		Uniforms: e.uniforms(true),
	})
	if err != nil {
		return fmt.Errorf("engine: update pass: %w", err)
	}
	e.current = target
	e.ticks++
	return nil
}

// Display draws the current texture onto the surface.
func (e *Engine) Display() error {
	if err := e.ready(); err != nil {
		return err
	}
	err := e.dev.Draw(gpu.Pass{
		Program:  e.program,
		Source:   e.current,
		Target:   e.surface,
		Uniforms: e.uniforms(false),
	})
	if err != nil {
		return fmt.Errorf("engine: display pass: %w", err)
	}
	return nil
}

// Refresh redraws the surface, doing nothing while no program exists.
func (e *Engine) Refresh() error {
	if e.state == Uninitialized || e.program == nil {
		return nil
	}
	return e.Display()
}

func (e *Engine) ready() error {
	if e.state == Uninitialized {
		return ErrNotInitialized
	}
	if e.program == nil {
		return ErrNoProgram
	}
	return nil
}

func (e *Engine) alternate() gpu.Texture {
	if e.current == e.buffers[0] {
		return e.buffers[1]
	}
	return e.buffers[0]
}

func (e *Engine) uniforms(step bool) gpu.Uniforms {
	return gpu.Uniforms{Resolution: e.size, Step: step, Kernel: e.kernel, Color: e.color}
}

// Poke paints a brush square of 0 or 255 centred on canvas pixel (x, y)
// into the current texture and redisplays. Canvas y grows downwards while
// texture rows grow upwards. The square is clipped to the grid; a square
// entirely outside it paints nothing.
func (e *Engine) Poke(x, y int, fill bool) error {
	if e.state == Uninitialized {
		return ErrNotInitialized
	}
	y = e.size.H - y
	half := e.brush / 2
	r := image.Rect(x-half, y-half, x-half+e.brush, y-half+e.brush).
		Intersect(image.Rect(0, 0, e.size.W, e.size.H))
	if r.Empty() {
		return nil
	}
	v := uint8(0)
	if fill {
		v = 255
	}
	if err := e.current.WriteRegion(r, core.Patch(r.Dx(), r.Dy(), v)); err != nil {
		return fmt.Errorf("engine: poke: %w", err)
	}
	return e.Refresh()
}

// Resize reallocates the grid, reloads state from the configured strategy
// and resumes the loop if it was running. Unchanged sizes are ignored.
func (e *Engine) Resize(w, h int) error {
	if e.state == Uninitialized {
		return ErrNotInitialized
	}
	size := core.Size{W: w, H: h}
	if size == e.size {
		return nil
	}
	if !size.Valid() {
		return fmt.Errorf("engine: invalid size %v", size)
	}
	wasRunning := e.state == Running
	e.Stop()
	if err := e.allocate(size); err != nil {
		return err
	}
	if err := e.surface.SetViewport(size); err != nil {
		return fmt.Errorf("engine: viewport: %w", err)
	}
	if err := e.SetState(core.GenerateState(e.rng, w, h, e.strategy)); err != nil {
		return err
	}
	e.log.Info("engine resized", "size", size.String(), "strategy", string(e.strategy))
	if wasRunning {
		return e.Start()
	}
	return nil
}

// RunState reports the lifecycle state.
func (e *Engine) RunState() RunState { return e.state }

// Diagnostic returns the last compile or frame failure, empty after a
// successful compile.
func (e *Engine) Diagnostic() string { return e.diagnostic }

// Size returns the grid dimensions.
func (e *Engine) Size() core.Size { return e.size }

// ProgramVersion counts successful compiles.
func (e *Engine) ProgramVersion() uint64 { return e.version }

// Ticks counts update passes since creation.
func (e *Engine) Ticks() uint64 { return e.ticks }

func (e *Engine) Kernel() core.Kernel { return e.kernel }
func (e *Engine) Color() core.Color { return e.color }
func (e *Engine) Activation() string { return e.activation }
func (e *Engine) Persistent() bool { return e.persistent }
func (e *Engine) SkipFrames() bool { return e.skipFrames }
func (e *Engine) Strategy() core.Strategy { return e.strategy }
func (e *Engine) BrushSize() int { return e.brush }
func (e *Engine) Renderable() bool { return e.program != nil }
func (e *Engine) DeviceName() string { return e.dev.Name() }
