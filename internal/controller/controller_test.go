package controller

import (
	"errors"
	"slices"
	"testing"

	"convca/internal/config"
	"convca/internal/core"
	"convca/internal/engine"
	"convca/internal/gpu"
	"convca/internal/render"
)

type rig struct {
	ctl     *Controller
	eng     *engine.Engine
	queue   *engine.FrameQueue
	surface *render.SoftSurface
}

func newRig(t *testing.T, w, h int, opts ...Option) rig {
	t.Helper()
	dev := render.NewSoftware()
	surface, err := dev.NewSurface(core.Size{W: 1, H: 1})
	if err != nil {
		t.Fatal(err)
	}
	queue := &engine.FrameQueue{}
	eng := engine.New(dev, queue, engine.WithRand(core.NewRNG(9)))
	opts = append([]Option{WithRand(core.NewRNG(3))}, opts...)
	ctl := New(eng, opts...)
	if err := ctl.Init(surface, w, h); err != nil {
		t.Fatal(err)
	}
	return rig{ctl: ctl, eng: eng, queue: queue, surface: surface}
}

func (r rig) state(t *testing.T) core.StateBuffer {
	t.Helper()
	buf, err := r.eng.State()
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func ptr[T any](v T) *T { return &v }

func TestInitStartsLoop(t *testing.T) {
	r := newRig(t, 16, 16)
	if r.eng.RunState() != engine.Running || r.queue.Pending() != 1 {
		t.Fatalf("engine %v with %d pending frames after init", r.eng.RunState(), r.queue.Pending())
	}
	if r.eng.Kernel() != r.ctl.Kernel() || r.eng.Color() != r.ctl.Color() {
		t.Fatal("engine uniforms differ from controller settings")
	}
	if r.eng.ProgramVersion() != 1 {
		t.Fatalf("program version %d after init", r.eng.ProgramVersion())
	}
	r.queue.RunFrame()
	if r.eng.Ticks() != 1 {
		t.Fatalf("ticks %d after one frame", r.eng.Ticks())
	}
}

func TestInitPaused(t *testing.T) {
	r := newRig(t, 8, 8, WithPaused(true))
	if !r.ctl.Paused() || r.eng.RunState() != engine.Paused || r.queue.Pending() != 0 {
		t.Fatal("paused controller started the loop")
	}
	if err := r.ctl.PauseToggle(); err != nil {
		t.Fatal(err)
	}
	if r.ctl.Paused() || r.eng.RunState() != engine.Running {
		t.Fatal("toggle did not resume")
	}
	if err := r.ctl.SetPaused(false); err != nil {
		t.Fatalf("setting the same value: %v", err)
	}
	if err := r.ctl.SetPaused(true); err != nil {
		t.Fatal(err)
	}
	if r.eng.RunState() != engine.Paused || r.queue.Pending() != 0 {
		t.Fatal("pause left a frame scheduled")
	}
}

func TestUniformChangesDoNotRecompile(t *testing.T) {
	r := newRig(t, 8, 8)
	before := r.eng.ProgramVersion()
	if err := r.ctl.SetColor(core.Color{0, 1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := r.ctl.RandomizeColor(); err != nil {
		t.Fatal(err)
	}
	if err := r.ctl.RandomizeKernel(); err != nil {
		t.Fatal(err)
	}
	if err := r.ctl.SetKernel(core.Kernel{4: 1}); err != nil {
		t.Fatal(err)
	}
	r.ctl.SetSkipFrames(true)
	if r.eng.ProgramVersion() != before {
		t.Fatalf("program version %d -> %d", before, r.eng.ProgramVersion())
	}
	if r.eng.Kernel() != (core.Kernel{4: 1}) || !r.eng.SkipFrames() {
		t.Fatal("settings not forwarded")
	}
	if r.eng.RunState() != engine.Running {
		t.Fatal("apply left the engine stopped")
	}
}

func TestSetPersistentRecompiles(t *testing.T) {
	r := newRig(t, 8, 8)
	before := r.eng.ProgramVersion()
	if err := r.ctl.SetPersistent(true); err != nil {
		t.Fatal(err)
	}
	if r.eng.ProgramVersion() != before+1 || !r.eng.Persistent() {
		t.Fatalf("version %d persistent %v", r.eng.ProgramVersion(), r.eng.Persistent())
	}
	if err := r.ctl.Apply(false); err != nil {
		t.Fatal(err)
	}
	if r.eng.ProgramVersion() != before+1 {
		t.Fatal("non-recompiling apply bumped the version")
	}
}

func TestSetActivationReportsDiagnostic(t *testing.T) {
	r := newRig(t, 8, 8)
	before := r.eng.ProgramVersion()
	err := r.ctl.SetActivation("x +")
	var ce *gpu.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected compile error, got %v", err)
	}
	if r.eng.ProgramVersion() != before || r.eng.RunState() != engine.Running {
		t.Fatal("failed recompile should keep the old program running")
	}
	if r.eng.Diagnostic() == "" {
		t.Fatal("diagnostic not recorded")
	}
}

func TestLoadRecompilesOnce(t *testing.T) {
	r := newRig(t, 8, 8)
	before := r.eng.ProgramVersion()
	color := r.ctl.Color()
	b := config.Bundle{
		Name:       ptr("rule"),
		Persistent: ptr(true),
		Filter:     config.Filter{0, 0, 0, 0, 1, 0, 0, 0, 0},
		Activation: ptr("x*0.5"),
		Color:      &config.ColorSpec{Random: true},
		SkipFrames: ptr(true),
		HorSym:     ptr(true),
	}
	if err := r.ctl.Load(b, false); err != nil {
		t.Fatal(err)
	}
	if r.eng.ProgramVersion() != before+1 {
		t.Fatalf("load compiled %d times", r.eng.ProgramVersion()-before)
	}
	if r.ctl.Color() != color {
		t.Fatal("random colour sentinel replaced the colour")
	}
	if r.eng.Kernel() != (core.Kernel{4: 1}) || r.eng.Activation() != "x*0.5" || !r.eng.Persistent() || !r.eng.SkipFrames() {
		t.Fatal("bundle fields not forwarded to the engine")
	}
	if r.ctl.Name() != "rule" || !r.ctl.Symmetry().Horizontal {
		t.Fatal("bundle metadata not recorded")
	}

	if err := r.ctl.Load(config.Bundle{Color: &config.ColorSpec{RGB: core.Color{1, 0, 0}}}, false); err != nil {
		t.Fatal(err)
	}
	if r.eng.Color() != (core.Color{1, 0, 0}) || r.eng.Activation() != "x*0.5" {
		t.Fatal("partial bundle should only change its own fields")
	}
}

func TestLoadWithReset(t *testing.T) {
	r := newRig(t, 9, 6)
	b := config.Bundle{ResetType: ptr(string(core.StrategyCenter))}
	if err := r.ctl.Load(b, true); err != nil {
		t.Fatal(err)
	}
	want := core.GenerateState(core.NewRNG(0), 9, 6, core.StrategyCenter)
	if got := r.state(t); !slices.Equal(got.Pix, want.Pix) {
		t.Fatal("reset did not use the loaded strategy")
	}
	if r.eng.Strategy() != core.StrategyCenter {
		t.Fatalf("engine resize strategy %q", r.eng.Strategy())
	}
}

func TestLoadResetsAfterCompileFailure(t *testing.T) {
	r := newRig(t, 8, 8)
	b := config.Bundle{ResetType: ptr(string(core.StrategyEmpty)), Activation: ptr("pow(x)")}
	err := r.ctl.Load(b, true)
	var ce *gpu.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected compile error, got %v", err)
	}
	if got := r.state(t); !slices.Equal(got.Pix, make([]uint8, len(got.Pix))) {
		t.Fatal("state not reset after failed compile")
	}
}

func TestLoadRejectsBadFilter(t *testing.T) {
	r := newRig(t, 8, 8)
	k := r.ctl.Kernel()
	err := r.ctl.Load(config.Bundle{Filter: config.Filter{1, 2}}, false)
	if !errors.Is(err, config.ErrFilterLength) {
		t.Fatalf("load returned %v", err)
	}
	if r.ctl.Kernel() != k {
		t.Fatal("rejected bundle changed the kernel")
	}
}

func TestResetStateStrategies(t *testing.T) {
	r := newRig(t, 8, 8)
	if err := r.ctl.ResetState(core.StrategyCenterTop); err != nil {
		t.Fatal(err)
	}
	if r.ctl.Strategy() != core.StrategyCenterTop {
		t.Fatalf("strategy %q", r.ctl.Strategy())
	}

	if err := r.ctl.ResetState(core.StrategyEmpty); err != nil {
		t.Fatal(err)
	}
	if r.ctl.Strategy() != core.StrategyCenterTop || r.eng.Strategy() != core.StrategyCenterTop {
		t.Fatal("empty reset replaced the configured strategy")
	}
	if got := r.state(t); !slices.Equal(got.Pix, make([]uint8, len(got.Pix))) {
		t.Fatal("empty reset left lit cells")
	}

	if err := r.ctl.ResetState(core.UseCurrent); err != nil {
		t.Fatal(err)
	}
	want := core.GenerateState(core.NewRNG(0), 8, 8, core.StrategyCenterTop)
	if got := r.state(t); !slices.Equal(got.Pix, want.Pix) {
		t.Fatal("UseCurrent did not reuse the configured strategy")
	}
}

func TestStepAndOffset(t *testing.T) {
	r := newRig(t, 8, 8, WithPaused(true))
	if err := r.ctl.Step(); err != nil {
		t.Fatal(err)
	}
	if err := r.ctl.OffsetSkippedFrame(); err != nil {
		t.Fatal(err)
	}
	if r.eng.Ticks() != 2 {
		t.Fatalf("ticks %d, want 2", r.eng.Ticks())
	}
}

func TestResizeForwards(t *testing.T) {
	r := newRig(t, 8, 8)
	if err := r.ctl.Resize(12, 10); err != nil {
		t.Fatal(err)
	}
	if r.eng.Size() != (core.Size{W: 12, H: 10}) || r.eng.RunState() != engine.Running {
		t.Fatalf("engine %v %v after resize", r.eng.Size(), r.eng.RunState())
	}
}

func TestApplyBeforeInit(t *testing.T) {
	ctl := New(engine.New(render.NewSoftware(), &engine.FrameQueue{}))
	if err := ctl.Apply(false); !errors.Is(err, engine.ErrNotInitialized) {
		t.Fatalf("apply returned %v", err)
	}
	if err := ctl.ResetState(core.UseCurrent); !errors.Is(err, engine.ErrNotInitialized) {
		t.Fatalf("reset returned %v", err)
	}
}

// recorder logs the order of engine calls.
type recorder struct {
	calls []string
	size  core.Size
}

func (r *recorder) log(name string) { r.calls = append(r.calls, name) }

func (r *recorder) Init(_ gpu.Surface, w, h int) error {
	r.size = core.Size{W: w, H: h}
	r.log("init")
	return nil
}
func (r *recorder) Compile(_, _, _ string) error { r.log("compile"); return nil }
func (r *recorder) Recompile() error { r.log("recompile"); return nil }
func (r *recorder) SetActivation(string) { r.log("activation") }
func (r *recorder) SetPersistent(bool) { r.log("persistent") }
func (r *recorder) SetSkipFrames(bool) { r.log("skip") }
func (r *recorder) SetKernel(core.Kernel) { r.log("kernel") }
func (r *recorder) SetColor(core.Color) error { r.log("color"); return nil }
func (r *recorder) SetStrategy(core.Strategy) { r.log("strategy") }
func (r *recorder) SetState(core.StateBuffer) error { r.log("state"); return nil }
func (r *recorder) Start() error { r.log("start"); return nil }
func (r *recorder) Stop() { r.log("stop") }
func (r *recorder) Step() error { r.log("step"); return nil }
func (r *recorder) Update() error { r.log("update"); return nil }
func (r *recorder) Display() error { r.log("display"); return nil }
func (r *recorder) Refresh() error { r.log("refresh"); return nil }
func (r *recorder) Resize(int, int) error { r.log("resize"); return nil }
func (r *recorder) Size() core.Size { return r.size }

func TestApplyBrackets(t *testing.T) {
	rec := &recorder{}
	ctl := New(rec)
	if err := ctl.Init(nil, 4, 4); err != nil {
		t.Fatal(err)
	}

	rec.calls = nil
	if err := ctl.Apply(true); err != nil {
		t.Fatal(err)
	}
	want := []string{"stop", "kernel", "color", "activation", "recompile", "start"}
	if !slices.Equal(rec.calls, want) {
		t.Fatalf("running apply calls %v, want %v", rec.calls, want)
	}

	if err := ctl.SetPaused(true); err != nil {
		t.Fatal(err)
	}
	rec.calls = nil
	if err := ctl.Apply(false); err != nil {
		t.Fatal(err)
	}
	want = []string{"kernel", "color", "activation", "refresh"}
	if !slices.Equal(rec.calls, want) {
		t.Fatalf("paused apply calls %v, want %v", rec.calls, want)
	}

	rec.calls = nil
	if err := ctl.SetColor(core.Color{1, 1, 1}); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rec.calls, []string{"color"}) {
		t.Fatalf("set color calls %v", rec.calls)
	}
}
