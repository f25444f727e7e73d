package ui

import (
	"fmt"
	"strings"

	"convca/internal/core"
)

// Status is the readout shown in the HUD panel.
type Status struct {
	Name       string
	Device     string
	State      string
	Size       core.Size
	Version    uint64
	Ticks      uint64
	Strategy   core.Strategy
	Activation string
	Persistent bool
	SkipFrames bool
	Symmetry   core.Symmetry
	Brush      int
	Diagnostic string
}

// Lines formats the status as HUD rows. The diagnostic is wrapped to width
// columns; width <= 0 disables wrapping.
func (s Status) Lines(width int) []string {
	name := s.Name
	if name == "" {
		name = "custom"
	}
	lines := []string{
		fmt.Sprintf("%s [%s]", name, s.State),
		fmt.Sprintf("grid %s  tick %d", s.Size, s.Ticks),
		fmt.Sprintf("program v%d on %s", s.Version, s.Device),
		fmt.Sprintf("reset %s  brush %d", s.Strategy, s.Brush),
		"f(x) = " + s.Activation,
		"flags " + s.flags(),
	}
	if s.Diagnostic != "" {
		lines = append(lines, wrap("! "+s.Diagnostic, width)...)
	}
	return lines
}

func (s Status) flags() string {
	var on []string
	for _, f := range []struct {
		set  bool
		name string
	}{
		{s.Persistent, "persist"},
		{s.SkipFrames, "skip"},
		{s.Symmetry.Horizontal, "hsym"},
		{s.Symmetry.Vertical, "vsym"},
		{s.Symmetry.Full, "fsym"},
	} {
		if f.set {
			on = append(on, f.name)
		}
	}
	if len(on) == 0 {
		return "-"
	}
	return strings.Join(on, " ")
}

func wrap(s string, width int) []string {
	if width <= 0 || len(s) <= width {
		return []string{s}
	}
	var out []string
	for len(s) > width {
		cut := strings.LastIndexByte(s[:width], ' ')
		if cut <= 0 {
			cut = width
		}
		out = append(out, s[:cut])
		s = strings.TrimLeft(s[cut:], " ")
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
