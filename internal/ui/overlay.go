//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"convca/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Overlay draws optional visuals on top of the automaton: the paint brush
// outline under the cursor and a swatch of the current kernel weights.
type Overlay struct {
	scale      int
	showBrush  bool
	showKernel bool
	pixel      *ebiten.Image
}

// NewOverlay constructs a new overlay for a view drawn at scale.
func NewOverlay(scale int) *Overlay {
	if scale <= 0 {
		scale = 1
	}
	o := &Overlay{scale: scale, showBrush: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update toggles the overlay layers.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showBrush = !o.showBrush
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showKernel = !o.showKernel
	}
}

// Draw renders the enabled layers. brush is the edge length in cells.
func (o *Overlay) Draw(screen *ebiten.Image, brush int, k core.Kernel) {
	if o.showBrush && brush > 0 {
		mx, my := ebiten.CursorPosition()
		o.drawBrush(screen, mx, my, brush)
	}
	if o.showKernel {
		o.drawKernel(screen, k)
	}
}

func (o *Overlay) drawBrush(screen *ebiten.Image, mx, my, brush int) {
	s := float64(o.scale)
	half := float64(brush/2) * s
	// Snap to the cell grid so the outline matches the painted square.
	x0 := math.Floor(float64(mx)/s)*s - half
	y0 := math.Floor(float64(my)/s)*s - half
	side := float64(brush) * s
	col := color.NRGBA{R: 255, G: 255, B: 255, A: 140}
	o.drawLine(screen, x0, y0, x0+side, y0, 1, col)
	o.drawLine(screen, x0, y0+side, x0+side, y0+side, 1, col)
	o.drawLine(screen, x0, y0, x0, y0+side, 1, col)
	o.drawLine(screen, x0+side, y0, x0+side, y0+side, 1, col)
}

func (o *Overlay) drawKernel(screen *ebiten.Image, k core.Kernel) {
	const cell = 14.0
	bounds := screen.Bounds()
	left := float64(bounds.Dx()) - 3*cell - 8
	top := 8.0
	for i, w := range k {
		// Row 0 of the kernel samples dy=-1, which is drawn lower on screen.
		row := 2 - i/3
		colIdx := i % 3
		cx := left + float64(colIdx)*cell + cell/2
		cy := top + float64(row)*cell + cell/2
		o.drawPoint(screen, cx, cy, cell-2, weightColor(w))
	}
}

func weightColor(w float32) color.NRGBA {
	m := clamp01(math.Abs(float64(w)))
	level := uint8(math.Round(60 + 195*m))
	if w < 0 {
		return color.NRGBA{R: level, G: 40, B: 40, A: 220}
	}
	return color.NRGBA{R: 40, G: level, B: 60, A: 220}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.NRGBA) {
	if o.pixel == nil || size <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.NRGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}
