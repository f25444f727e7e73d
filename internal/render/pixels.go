package render

import (
	"math"

	"convca/internal/core"
)

// fillMaskedRGBA converts grayscale cells (red channel) into opaque RGBA
// pixels tinted by mask.
func fillMaskedRGBA(dst, cells []byte, mask core.Color) {
	for i := 0; i+3 < len(cells); i += 4 {
		v := float32(cells[i]) / 255
		dst[i+0] = toByte(v * mask[0])
		dst[i+1] = toByte(v * mask[1])
		dst[i+2] = toByte(v * mask[2])
		dst[i+3] = 255
	}
}

// toByte maps [0,1] onto [0,255] with rounding, clamping anything outside
// the range and treating NaN as zero.
func toByte(v float32) uint8 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// convolve runs the update branch over src into dst. Samples outside the
// grid repeat the nearest edge cell.
func convolve(dst, src []byte, size core.Size, k core.Kernel, act *activation, persistent bool) error {
	w, h := size.W, size.H
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float32
			for dy := -1; dy <= 1; dy++ {
				row := clampInt(y+dy, 0, h-1) * w
				for dx := -1; dx <= 1; dx++ {
					col := clampInt(x+dx, 0, w-1)
					sum += k[(dy+1)*3+dx+1] * float32(src[(row+col)*4]) / 255
				}
			}
			out, err := act.eval(float64(sum))
			if err != nil {
				return err
			}
			v := math.Min(math.Max(out, 0), 1)
			if persistent {
				prev := float64(src[(y*w+x)*4]) / 255
				v = math.Max(v, prev-persistenceDecay)
			}
			b := toByte(float32(v))
			i := (y*w + x) * 4
			dst[i], dst[i+1], dst[i+2], dst[i+3] = b, b, b, b
		}
	}
	return nil
}
