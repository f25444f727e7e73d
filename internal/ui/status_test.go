package ui

import (
	"slices"
	"strings"
	"testing"

	"convca/internal/core"
)

func TestStatusLines(t *testing.T) {
	s := Status{
		Name:       "Worms",
		Device:     "software",
		State:      "running",
		Size:       core.Size{W: 64, H: 32},
		Version:    3,
		Ticks:      10,
		Strategy:   core.StrategyRandom,
		Activation: "x",
		Persistent: true,
		Symmetry:   core.Symmetry{Full: true},
		Brush:      25,
	}
	want := []string{
		"Worms [running]",
		"grid 64x32  tick 10",
		"program v3 on software",
		"reset random  brush 25",
		"f(x) = x",
		"flags persist fsym",
	}
	if got := s.Lines(0); !slices.Equal(got, want) {
		t.Fatalf("lines\n%q\nwant\n%q", got, want)
	}

	s.Name, s.Persistent, s.Symmetry = "", false, core.Symmetry{}
	got := s.Lines(0)
	if got[0] != "custom [running]" || got[5] != "flags -" {
		t.Fatalf("defaults rendered as %q / %q", got[0], got[5])
	}
}

func TestStatusWrapsDiagnostic(t *testing.T) {
	s := Status{Diagnostic: "activation error: unexpected token EOF at line 1"}
	lines := s.Lines(20)
	diag := lines[6:]
	if len(diag) < 2 {
		t.Fatalf("diagnostic not wrapped: %q", diag)
	}
	for _, l := range diag {
		if len(l) > 20 {
			t.Fatalf("line %q exceeds width", l)
		}
	}
	if joined := strings.Join(diag, " "); joined != "! "+s.Diagnostic {
		t.Fatalf("wrapped text %q lost words", joined)
	}

	long := wrap("abcdefghij", 4)
	if !slices.Equal(long, []string{"abcd", "efgh", "ij"}) {
		t.Fatalf("hard wrap %q", long)
	}
}
