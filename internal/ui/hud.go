//go:build ebiten

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const (
	panelPadding   = 8
	headerBaseline = 13
	lineSpacing    = 15
	glyphWidth     = 7
)

var (
	panelColor = color.RGBA{R: 16, G: 16, B: 20, A: 200}
	textColor  = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	errorColor = color.RGBA{R: 255, G: 120, B: 96, A: 255}
	hintColor  = color.RGBA{R: 160, G: 160, B: 170, A: 255}
)

const keyHint = "spc pause  n step  r/e reset  c/k rand  p/s/h/v/f toggle  tab preset"

// HUD renders the status panel in the top-left corner of the view.
type HUD struct {
	width   int
	visible bool
	lines   []string
	diagAt  int
	panel   *ebiten.Image
}

// NewHUD constructs a HUD with the given panel width in pixels.
func NewHUD(width int) *HUD {
	if width < 0 {
		width = 0
	}
	return &HUD{width: width, visible: width > 0}
}

// Update takes the latest status and toggles visibility on the D key.
func (h *HUD) Update(s Status) {
	if h == nil {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		h.visible = !h.visible
	}
	cols := (h.width - 2*panelPadding) / glyphWidth
	plain := s
	plain.Diagnostic = ""
	h.diagAt = len(plain.Lines(0))
	h.lines = s.Lines(cols)
}

// Draw paints the panel over the screen.
func (h *HUD) Draw(screen *ebiten.Image) {
	if h == nil || !h.visible || h.width <= 0 || len(h.lines) == 0 {
		return
	}
	height := panelPadding*2 + lineSpacing*(len(h.lines)+1)
	if h.panel == nil || h.panel.Bounds().Dx() != h.width || h.panel.Bounds().Dy() != height {
		if h.panel != nil {
			h.panel.Dispose()
		}
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(panelColor)

	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	for i, line := range h.lines {
		c := textColor
		if i >= h.diagAt {
			c = errorColor
		}
		text.Draw(h.panel, line, face, panelPadding, y, c)
		y += lineSpacing
	}
	text.Draw(h.panel, keyHint, face, panelPadding, y, hintColor)

	screen.DrawImage(h.panel, &ebiten.DrawImageOptions{})
}
