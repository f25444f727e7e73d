package core

import "testing"

func TestGenerateKernelFullSymmetry(t *testing.T) {
	rng := NewRNG(7)
	for n := 0; n < 200; n++ {
		k := GenerateKernel(rng, -1, 1, Symmetry{Full: true})
		if k[0] != k[2] || k[0] != k[6] || k[0] != k[8] {
			t.Fatalf("corners not equal: %v", k)
		}
		if k[1] != k[3] || k[1] != k[5] || k[1] != k[7] {
			t.Fatalf("edges not equal: %v", k)
		}
	}
}

func TestGenerateKernelFullOverridesFlags(t *testing.T) {
	a := GenerateKernel(NewRNG(3), -1, 1, Symmetry{Full: true})
	b := GenerateKernel(NewRNG(3), -1, 1, Symmetry{Full: true, Horizontal: true, Vertical: true})
	if a != b {
		t.Fatalf("full symmetry should ignore individual flags: %v vs %v", a, b)
	}
}

func TestGenerateKernelHorizontalSymmetry(t *testing.T) {
	rng := NewRNG(11)
	independent := false
	for n := 0; n < 200; n++ {
		k := GenerateKernel(rng, -1, 1, Symmetry{Horizontal: true})
		for i := 0; i < 3; i++ {
			if k[6+i] != k[i] {
				t.Fatalf("bottom row %d differs from top: %v", i, k)
			}
		}
		if k[0] != k[2] {
			independent = true
		}
	}
	if !independent {
		t.Fatal("left and right columns should stay independent under horizontal symmetry")
	}
}

func TestGenerateKernelVerticalSymmetry(t *testing.T) {
	rng := NewRNG(13)
	for n := 0; n < 200; n++ {
		k := GenerateKernel(rng, -1, 1, Symmetry{Vertical: true})
		if k[2] != k[0] || k[5] != k[3] || k[8] != k[6] {
			t.Fatalf("right column differs from left: %v", k)
		}
	}
}

func TestGenerateKernelCombinedFlags(t *testing.T) {
	k := GenerateKernel(NewRNG(5), -1, 1, Symmetry{Horizontal: true, Vertical: true})
	if k[0] != k[2] || k[0] != k[6] || k[0] != k[8] {
		t.Fatalf("corners should match when both flags are set: %v", k)
	}
	if k[3] != k[5] || k[1] != k[7] {
		t.Fatalf("opposite edges should match: %v", k)
	}
}

func TestGenerateKernelRange(t *testing.T) {
	rng := NewRNG(17)
	for n := 0; n < 100; n++ {
		k := GenerateKernel(rng, -0.5, 2, Symmetry{})
		for i, w := range k {
			if w < -0.5 || w > 2 {
				t.Fatalf("weight %d out of range: %f", i, w)
			}
		}
	}
}

func TestGenerateKernelDeterministic(t *testing.T) {
	a := GenerateKernel(NewRNG(99), -1, 1, Symmetry{})
	b := GenerateKernel(NewRNG(99), -1, 1, Symmetry{})
	if a != b {
		t.Fatalf("same seed produced different kernels: %v vs %v", a, b)
	}
}

func TestKernelFrom(t *testing.T) {
	k, err := KernelFrom([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		t.Fatal(err)
	}
	if k[4] != 5 || k[8] != 9 {
		t.Fatalf("unexpected kernel %v", k)
	}
	if _, err := KernelFrom([]float64{1, 2, 3}); err == nil {
		t.Fatal("expected error for short kernel")
	}
}

func TestRandomColor(t *testing.T) {
	rng := NewRNG(21)
	for n := 0; n < 100; n++ {
		c := RandomColor(rng)
		saturated := false
		for _, v := range c {
			if v < 0 || v > 1 {
				t.Fatalf("channel out of range: %v", c)
			}
			if v == 1 {
				saturated = true
			}
		}
		if !saturated {
			t.Fatalf("expected one saturated channel: %v", c)
		}
	}
}
