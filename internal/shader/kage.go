package shader

// ebiten owns the full-screen quad geometry, so the vertex text for Kage is
// the program header: unit directive, package clause and the uniform block
// shared by the update and display branches.
const KageVertex = `//kage:unit pixels

package main

var Resolution vec2
var Step float
var Kernel [9]float
var ColorMask vec4
`

// KageFragment samples source image 0 with edge clamping. The update branch
// convolves the red channel; the display branch tints the current value.
const KageFragment = `
func activation(x float) float {
	return {{.Activation}}
}

func cell(pos vec2) float {
	origin := imageSrc0Origin()
	p := clamp(pos, origin+0.5, origin+Resolution-0.5)
	return imageSrc0UnsafeAt(p).r
}

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	prev := cell(srcPos)
	if Step < 0.5 {
		return vec4(prev*ColorMask.rgb, 1)
	}
	sum := Kernel[0]*cell(srcPos+vec2(-1, -1)) +
		Kernel[1]*cell(srcPos+vec2(0, -1)) +
		Kernel[2]*cell(srcPos+vec2(1, -1)) +
		Kernel[3]*cell(srcPos+vec2(-1, 0)) +
		Kernel[4]*prev +
		Kernel[5]*cell(srcPos+vec2(1, 0)) +
		Kernel[6]*cell(srcPos+vec2(-1, 1)) +
		Kernel[7]*cell(srcPos+vec2(0, 1)) +
		Kernel[8]*cell(srcPos+vec2(1, 1))
	v := clamp(activation(sum), 0, 1)
	{{.Persistence}}
	return vec4(v)
}
`

// DefaultTemplate parses the built-in Kage sources.
func DefaultTemplate() *Template {
	t, err := Parse(KageVertex, KageFragment)
	if err != nil {
		panic(err)
	}
	return t
}
