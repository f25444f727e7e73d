package render

import (
	"fmt"
	"image"
	"strings"

	"convca/internal/core"
	"convca/internal/gpu"
	"convca/internal/shader"
)

const persistenceDecay = shader.PersistenceDecay

// Software is a CPU implementation of gpu.Device. It cannot execute shader
// text, so programs are built from the activation expression and the
// persistence flag carried by gpu.Source; the fragment text is only checked
// for presence.
type Software struct {
	compiles int
	draws    int
}

// NewSoftware returns a software device.
func NewSoftware() *Software { return &Software{} }

// Name identifies the device.
func (s *Software) Name() string { return "software" }

// Compiles reports how many programs were built successfully.
func (s *Software) Compiles() int { return s.compiles }

// Draws reports how many passes were executed.
func (s *Software) Draws() int { return s.draws }

// NewTexture allocates a zeroed texture.
func (s *Software) NewTexture(size core.Size) (gpu.Texture, error) {
	return s.newTexture(size)
}

// NewSurface allocates a zeroed surface.
func (s *Software) NewSurface(size core.Size) (*SoftSurface, error) {
	tex, err := s.newTexture(size)
	if err != nil {
		return nil, err
	}
	return &SoftSurface{softTexture: tex}, nil
}

func (s *Software) newTexture(size core.Size) (*softTexture, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("software: invalid texture size %v", size)
	}
	return &softTexture{dev: s, size: size, pix: make([]byte, size.Pixels()*4)}, nil
}

// Compile builds a program.
func (s *Software) Compile(src gpu.Source) (gpu.Program, error) {
	if strings.TrimSpace(src.Fragment) == "" {
		return nil, &gpu.CompileError{Stage: "fragment", Log: "empty fragment source"}
	}
	act, err := compileActivation(src.Activation)
	if err != nil {
		return nil, &gpu.CompileError{Stage: "activation", Log: err.Error()}
	}
	s.compiles++
	return &softProgram{dev: s, act: act, persistent: src.Persistent}, nil
}

// Draw executes one pass.
func (s *Software) Draw(p gpu.Pass) error {
	prog, ok := p.Program.(*softProgram)
	if !ok || prog == nil || prog.dev != s {
		return gpu.ErrForeign
	}
	if prog.disposed {
		return gpu.ErrDisposed
	}
	src, err := s.own(p.Source)
	if err != nil {
		return err
	}
	dst, err := s.own(p.Target)
	if err != nil {
		return err
	}
	if src == dst {
		return gpu.ErrFeedback
	}
	if src.size != dst.size {
		return fmt.Errorf("software: source %v and target %v differ: %w", src.size, dst.size, core.ErrSizeMismatch)
	}
	s.draws++
	if p.Uniforms.Step {
		return convolve(dst.pix, src.pix, src.size, p.Uniforms.Kernel, prog.act, prog.persistent)
	}
	fillMaskedRGBA(dst.pix, src.pix, p.Uniforms.Color)
	return nil
}

func (s *Software) own(t gpu.Texture) (*softTexture, error) {
	var tex *softTexture
	switch v := t.(type) {
	case *softTexture:
		tex = v
	case *SoftSurface:
		tex = v.softTexture
	}
	if tex == nil || tex.dev != s {
		return nil, gpu.ErrForeign
	}
	if tex.disposed {
		return nil, gpu.ErrDisposed
	}
	return tex, nil
}

type softProgram struct {
	dev        *Software
	act        *activation
	persistent bool
	disposed   bool
}

func (p *softProgram) Dispose() { p.disposed = true }

type softTexture struct {
	dev      *Software
	size     core.Size
	pix      []byte
	disposed bool
}

func (t *softTexture) Size() core.Size { return t.size }

func (t *softTexture) WritePixels(pix []byte) error {
	if t.disposed {
		return gpu.ErrDisposed
	}
	if err := gpu.CheckFull(t.size, len(pix)); err != nil {
		return err
	}
	copy(t.pix, pix)
	return nil
}

func (t *softTexture) WriteRegion(r image.Rectangle, pix []byte) error {
	if t.disposed {
		return gpu.ErrDisposed
	}
	if err := gpu.CheckRegion(t.size, r, len(pix)); err != nil {
		return err
	}
	rowBytes := r.Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := (y*t.size.W + r.Min.X) * 4
		copy(t.pix[off:off+rowBytes], pix[(y-r.Min.Y)*rowBytes:])
	}
	return nil
}

func (t *softTexture) ReadPixels(pix []byte) error {
	if t.disposed {
		return gpu.ErrDisposed
	}
	if err := gpu.CheckFull(t.size, len(pix)); err != nil {
		return err
	}
	copy(pix, t.pix)
	return nil
}

func (t *softTexture) Dispose() { t.disposed = true; t.pix = nil }

// SoftSurface is the software device's visible target.
type SoftSurface struct {
	*softTexture
}

// SetViewport reallocates the surface at the new size.
func (s *SoftSurface) SetViewport(size core.Size) error {
	if !size.Valid() {
		return fmt.Errorf("software: invalid viewport %v", size)
	}
	if size == s.size {
		return nil
	}
	s.size = size
	s.pix = make([]byte, size.Pixels()*4)
	return nil
}

// Image copies the surface into an RGBA image, flipping rows so row 0 of
// the texture ends up at the bottom.
func (s *SoftSurface) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.size.W, s.size.H))
	rowBytes := s.size.W * 4
	for y := 0; y < s.size.H; y++ {
		src := s.pix[y*rowBytes : (y+1)*rowBytes]
		copy(img.Pix[(s.size.H-1-y)*img.Stride:], src)
	}
	return img
}
