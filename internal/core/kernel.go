package core

import "math/rand/v2"

// GenerateKernel draws nine independent weights in [min, max] and applies
// the requested symmetry. Full symmetry leaves three degrees of freedom
// (corner, edge and centre weights) and takes precedence over the
// individual flags.
func GenerateKernel(r *rand.Rand, min, max float32, sym Symmetry) Kernel {
	var k Kernel
	for i := range k {
		k[i] = uniform(r, min, max)
	}
	if sym.Full {
		return fullSymmetry(k)
	}
	if sym.Horizontal {
		k = hSymmetry(k)
	}
	if sym.Vertical {
		k = vSymmetry(k)
	}
	return k
}

// hSymmetry mirrors the top row onto the bottom row.
func hSymmetry(k Kernel) Kernel {
	k[6], k[7], k[8] = k[0], k[1], k[2]
	return k
}

// vSymmetry mirrors the left column onto the right column.
func vSymmetry(k Kernel) Kernel {
	k[2], k[5], k[8] = k[0], k[3], k[6]
	return k
}

func fullSymmetry(k Kernel) Kernel {
	k[3] = k[1]
	return vSymmetry(hSymmetry(k))
}
