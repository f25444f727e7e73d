// Package gpu defines the device contract the simulation engine draws
// through. Every pass names its program, source and target explicitly; no
// device state is implied by earlier calls.
package gpu

import (
	"errors"
	"fmt"
	"image"

	"convca/internal/core"
)

var (
	// ErrDisposed reports use of a released texture or program.
	ErrDisposed = errors.New("gpu: resource disposed")
	// ErrFeedback reports a pass whose source and target are the same texture.
	ErrFeedback = errors.New("gpu: pass reads and writes the same texture")
	// ErrForeign reports a resource created by a different device.
	ErrForeign = errors.New("gpu: resource belongs to another device")
)

// Texture is a device-resident RGBA8 image.
type Texture interface {
	Size() core.Size
	// WritePixels replaces the full contents; len(pix) must be W*H*4.
	WritePixels(pix []byte) error
	// WriteRegion replaces the pixels inside r, which must lie within the
	// texture; len(pix) must be r.Dx()*r.Dy()*4.
	WriteRegion(r image.Rectangle, pix []byte) error
	// ReadPixels copies the full contents into pix.
	ReadPixels(pix []byte) error
	Dispose()
}

// Surface is the visible render target. Resizing it updates the viewport.
type Surface interface {
	Texture
	SetViewport(size core.Size) error
}

// Program is a compiled shader program.
type Program interface {
	Dispose()
}

// Uniforms is the fixed uniform set shared by every pass.
type Uniforms struct {
	// Resolution is the grid size in pixels.
	Resolution core.Size
	// Step selects the update (convolution) branch instead of display.
	Step   bool
	Kernel core.Kernel
	Color  core.Color
}

// Pass is one full-screen draw.
type Pass struct {
	Program  Program
	Source   Texture
	Target   Texture
	Uniforms Uniforms
}

// Source is the input to Device.Compile.
type Source struct {
	Vertex   string
	Fragment string
	// Activation and Persistent are the values substituted into Fragment.
	// Devices that cannot execute Fragment directly build their program
	// from them instead.
	Activation string
	Persistent bool
}

// Device allocates resources and executes passes.
type Device interface {
	Name() string
	NewTexture(size core.Size) (Texture, error)
	Compile(src Source) (Program, error)
	Draw(p Pass) error
}

// CompileError carries the diagnostic produced by a failed build.
type CompileError struct {
	Stage string
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Stage, e.Log)
}

// CheckRegion validates a region write against a texture size.
func CheckRegion(size core.Size, r image.Rectangle, n int) error {
	if r.Empty() || !r.In(image.Rect(0, 0, size.W, size.H)) {
		return fmt.Errorf("gpu: region %v outside %v texture", r, size)
	}
	if n != r.Dx()*r.Dy()*4 {
		return fmt.Errorf("gpu: region %v needs %d bytes, got %d", r, r.Dx()*r.Dy()*4, n)
	}
	return nil
}

// CheckFull validates a full upload or readback buffer length.
func CheckFull(size core.Size, n int) error {
	if n != size.Pixels()*4 {
		return fmt.Errorf("gpu: %v texture needs %d bytes, got %d: %w", size, size.Pixels()*4, n, core.ErrSizeMismatch)
	}
	return nil
}
