//go:build ebiten

package render

import (
	"fmt"
	"image"

	"convca/internal/core"
	"convca/internal/gpu"

	"github.com/hajimehoshi/ebiten/v2"
)

// Ebiten runs passes as Kage shaders over ebiten images. ReadPixels is only
// valid once the game loop has started.
type Ebiten struct{}

// NewEbiten returns the GPU device.
func NewEbiten() *Ebiten { return &Ebiten{} }

// Name identifies the device.
func (e *Ebiten) Name() string { return "ebiten" }

// NewTexture allocates an offscreen image.
func (e *Ebiten) NewTexture(size core.Size) (gpu.Texture, error) {
	return newImageTexture(size)
}

// NewSurface allocates the image the game draws to the screen.
func (e *Ebiten) NewSurface(size core.Size) (*ImageSurface, error) {
	tex, err := newImageTexture(size)
	if err != nil {
		return nil, err
	}
	return &ImageSurface{imageTexture: tex}, nil
}

// Compile builds a Kage program from the header and fragment texts.
func (e *Ebiten) Compile(src gpu.Source) (gpu.Program, error) {
	code := src.Vertex + "\n" + src.Fragment
	sh, err := ebiten.NewShader([]byte(code))
	if err != nil {
		return nil, &gpu.CompileError{Stage: "kage", Log: err.Error()}
	}
	return &kageProgram{shader: sh}, nil
}

// Draw executes one full-screen pass.
func (e *Ebiten) Draw(p gpu.Pass) error {
	prog, ok := p.Program.(*kageProgram)
	if !ok || prog == nil {
		return gpu.ErrForeign
	}
	if prog.shader == nil {
		return gpu.ErrDisposed
	}
	src, err := imageOf(p.Source)
	if err != nil {
		return err
	}
	dst, err := imageOf(p.Target)
	if err != nil {
		return err
	}
	if src == dst {
		return gpu.ErrFeedback
	}
	size := p.Uniforms.Resolution
	step := float32(0)
	if p.Uniforms.Step {
		step = 1
	}
	k, c := p.Uniforms.Kernel, p.Uniforms.Color
	op := &ebiten.DrawRectShaderOptions{Blend: ebiten.BlendCopy}
	op.Images[0] = src
	op.Uniforms = map[string]any{
		"Resolution": []float32{float32(size.W), float32(size.H)},
		"Step":       step,
		"Kernel":     k[:],
		"ColorMask":  []float32{c[0], c[1], c[2], 1},
	}
	dst.DrawRectShader(size.W, size.H, prog.shader, op)
	return nil
}

func imageOf(t gpu.Texture) (*ebiten.Image, error) {
	var tex *imageTexture
	switch v := t.(type) {
	case *imageTexture:
		tex = v
	case *ImageSurface:
		tex = v.imageTexture
	}
	if tex == nil {
		return nil, gpu.ErrForeign
	}
	if tex.img == nil {
		return nil, gpu.ErrDisposed
	}
	return tex.img, nil
}

type kageProgram struct {
	shader *ebiten.Shader
}

func (p *kageProgram) Dispose() {
	if p.shader != nil {
		p.shader.Dispose()
		p.shader = nil
	}
}

type imageTexture struct {
	size core.Size
	img  *ebiten.Image
}

func newImageTexture(size core.Size) (*imageTexture, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("ebiten: invalid texture size %v", size)
	}
	return &imageTexture{size: size, img: ebiten.NewImage(size.W, size.H)}, nil
}

func (t *imageTexture) Size() core.Size { return t.size }

func (t *imageTexture) WritePixels(pix []byte) error {
	if t.img == nil {
		return gpu.ErrDisposed
	}
	if err := gpu.CheckFull(t.size, len(pix)); err != nil {
		return err
	}
	t.img.WritePixels(pix)
	return nil
}

func (t *imageTexture) WriteRegion(r image.Rectangle, pix []byte) error {
	if t.img == nil {
		return gpu.ErrDisposed
	}
	if err := gpu.CheckRegion(t.size, r, len(pix)); err != nil {
		return err
	}
	t.img.SubImage(r).(*ebiten.Image).WritePixels(pix)
	return nil
}

func (t *imageTexture) ReadPixels(pix []byte) error {
	if t.img == nil {
		return gpu.ErrDisposed
	}
	if err := gpu.CheckFull(t.size, len(pix)); err != nil {
		return err
	}
	t.img.ReadPixels(pix)
	return nil
}

func (t *imageTexture) Dispose() {
	if t.img != nil {
		t.img.Dispose()
		t.img = nil
	}
}

// ImageSurface is the ebiten device's visible target.
type ImageSurface struct {
	*imageTexture
}

// SetViewport reallocates the surface image at the new size.
func (s *ImageSurface) SetViewport(size core.Size) error {
	if !size.Valid() {
		return fmt.Errorf("ebiten: invalid viewport %v", size)
	}
	if size == s.size && s.img != nil {
		return nil
	}
	s.Dispose()
	s.size = size
	s.img = ebiten.NewImage(size.W, size.H)
	return nil
}

// Image exposes the surface for drawing onto the screen.
func (s *ImageSurface) Image() *ebiten.Image { return s.img }
