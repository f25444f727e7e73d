//go:build ebiten

package app

import (
	"fmt"
	"log/slog"

	"convca/internal/config"
	"convca/internal/controller"
	"convca/internal/core"
	"convca/internal/engine"
	"convca/internal/render"
	"convca/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const hudWidth = 520

// Game adapts the engine and controller to the ebiten.Game interface.
type Game struct {
	cfg    *Config
	log    *slog.Logger
	bundle config.Bundle

	dev     *render.Ebiten
	surface *render.ImageSurface
	queue   *engine.FrameQueue
	eng     *engine.Engine
	ctl     *controller.Controller

	hud     *ui.HUD
	overlay *ui.Overlay

	presets []string
	preset  int

	ready      bool
	wantW      int
	wantH      int
	lastLayout [2]int
}

// New constructs a Game that starts with bundle b. GPU resources are
// created on the first Update, once the ebiten loop is running.
func New(cfg *Config, b config.Bundle, log *slog.Logger) *Game {
	rng := core.NewRNG(cfg.Seed)
	dev := render.NewEbiten()
	queue := &engine.FrameQueue{}
	eng := engine.New(dev, queue, engine.WithLogger(log), engine.WithRand(rng))
	ctl := controller.New(eng,
		controller.WithLogger(log),
		controller.WithRand(rng),
		controller.WithPaused(cfg.Paused),
	)
	return &Game{
		cfg:     cfg,
		log:     log,
		bundle:  b,
		dev:     dev,
		queue:   queue,
		eng:     eng,
		ctl:     ctl,
		hud:     ui.NewHUD(hudWidth),
		overlay: ui.NewOverlay(cfg.Scale),
		presets: config.Presets(),
		preset:  -1,
		wantW:   cfg.Width,
		wantH:   cfg.Height,
	}
}

func (g *Game) init() error {
	surface, err := g.dev.NewSurface(core.Size{W: g.wantW, H: g.wantH})
	if err != nil {
		return err
	}
	g.surface = surface
	if err := g.ctl.Init(surface, g.wantW, g.wantH); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := g.eng.SetBrush(g.cfg.Brush); err != nil {
		return err
	}
	if err := g.ctl.Load(g.bundle, true); err != nil {
		g.log.Warn("startup bundle", "name", g.bundle.Label(), "err", err)
	}
	g.ready = true
	return nil
}

// report logs recoverable failures. Compile diagnostics also reach the HUD
// through the engine.
func (g *Game) report(err error) {
	if err != nil {
		g.log.Warn("action failed", "err", err)
	}
}

// Update handles input and runs the pending engine frame.
func (g *Game) Update() error {
	if !g.ready {
		if err := g.init(); err != nil {
			return err
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if sz := g.eng.Size(); sz.W != g.wantW || sz.H != g.wantH {
		g.report(g.ctl.Resize(g.wantW, g.wantH))
	}

	g.handleKeys()
	g.handlePointer()
	g.overlay.Update()

	g.queue.RunFrame()
	g.hud.Update(g.status())
	return nil
}

func (g *Game) handleKeys() {
	pressed := inpututil.IsKeyJustPressed
	switch {
	case pressed(ebiten.KeySpace):
		g.report(g.ctl.PauseToggle())
	case pressed(ebiten.KeyN):
		g.report(g.ctl.Step())
	case pressed(ebiten.KeyO):
		g.report(g.ctl.OffsetSkippedFrame())
	case pressed(ebiten.KeyR):
		g.report(g.ctl.ResetState(core.UseCurrent))
	case pressed(ebiten.KeyE):
		g.report(g.ctl.ResetState(core.StrategyEmpty))
	case pressed(ebiten.KeyT):
		g.report(g.ctl.ResetState(g.nextStrategy()))
	case pressed(ebiten.KeyC):
		g.report(g.ctl.RandomizeColor())
	case pressed(ebiten.KeyK):
		g.report(g.ctl.RandomizeKernel())
	case pressed(ebiten.KeyP):
		g.report(g.ctl.SetPersistent(!g.ctl.Persistent()))
	case pressed(ebiten.KeyS):
		g.ctl.SetSkipFrames(!g.ctl.SkipFrames())
	case pressed(ebiten.KeyH):
		sym := g.ctl.Symmetry()
		sym.Horizontal = !sym.Horizontal
		g.ctl.SetSymmetry(sym)
	case pressed(ebiten.KeyV):
		sym := g.ctl.Symmetry()
		sym.Vertical = !sym.Vertical
		g.ctl.SetSymmetry(sym)
	case pressed(ebiten.KeyF):
		sym := g.ctl.Symmetry()
		sym.Full = !sym.Full
		g.ctl.SetSymmetry(sym)
	case pressed(ebiten.KeyTab):
		g.loadNextPreset()
	case pressed(ebiten.KeyL):
		g.reloadConfig()
	case pressed(ebiten.KeyBracketLeft):
		g.report(g.eng.SetBrush(max(1, g.eng.BrushSize()-2)))
	case pressed(ebiten.KeyBracketRight):
		g.report(g.eng.SetBrush(g.eng.BrushSize() + 2))
	}
}

func (g *Game) handlePointer() {
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if !left && !right {
		return
	}
	mx, my := ebiten.CursorPosition()
	g.report(g.eng.Poke(mx/g.cfg.Scale, my/g.cfg.Scale, left))
}

func (g *Game) nextStrategy() core.Strategy {
	all := core.Strategies()
	cur := g.ctl.Strategy()
	for i, s := range all {
		if s == cur {
			return all[(i+1)%len(all)]
		}
	}
	return core.StrategyRandom
}

func (g *Game) loadNextPreset() {
	if len(g.presets) == 0 {
		return
	}
	g.preset = (g.preset + 1) % len(g.presets)
	b, err := config.Preset(g.presets[g.preset])
	if err != nil {
		g.report(err)
		return
	}
	g.apply(b)
}

func (g *Game) reloadConfig() {
	b, err := config.Load(g.cfg.Config)
	if err != nil {
		g.report(err)
		return
	}
	g.apply(b)
}

func (g *Game) apply(b config.Bundle) {
	g.report(g.ctl.Load(b, true))
	if b.Color != nil && b.Color.Random {
		g.report(g.ctl.RandomizeColor())
	}
}

func (g *Game) status() ui.Status {
	return ui.Status{
		Name:       g.ctl.Name(),
		Device:     g.eng.DeviceName(),
		State:      g.eng.RunState().String(),
		Size:       g.eng.Size(),
		Version:    g.eng.ProgramVersion(),
		Ticks:      g.eng.Ticks(),
		Strategy:   g.ctl.Strategy(),
		Activation: g.ctl.Activation(),
		Persistent: g.ctl.Persistent(),
		SkipFrames: g.ctl.SkipFrames(),
		Symmetry:   g.ctl.Symmetry(),
		Brush:      g.eng.BrushSize(),
		Diagnostic: g.eng.Diagnostic(),
	}
}

// Draw blits the surface, flipping rows so texture row 0 is at the bottom.
func (g *Game) Draw(screen *ebiten.Image) {
	if !g.ready || g.surface == nil {
		return
	}
	size := g.surface.Size()
	s := float64(g.cfg.Scale)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(s, -s)
	op.GeoM.Translate(0, float64(size.H)*s)
	screen.DrawImage(g.surface.Image(), op)

	g.overlay.Draw(screen, g.eng.BrushSize(), g.eng.Kernel())
	g.hud.Draw(screen)
}

// Layout maps the window onto a grid of window/scale cells. The resize
// itself happens in Update.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		return g.wantW * g.cfg.Scale, g.wantH * g.cfg.Scale
	}
	if g.lastLayout != [2]int{outsideWidth, outsideHeight} {
		g.lastLayout = [2]int{outsideWidth, outsideHeight}
		g.wantW = max(1, outsideWidth/g.cfg.Scale)
		g.wantH = max(1, outsideHeight/g.cfg.Scale)
	}
	return outsideWidth, outsideHeight
}
