// Package config decodes configuration bundles: the rule, colour and reset
// settings a controller applies in one step. Bundles come from YAML, either
// the embedded defaults overlaid with a user file or one of the named
// presets.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"

	"convca/internal/core"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

//go:embed presets.yaml
var presetsYAML []byte

// RandomColor is the colour sentinel that keeps or randomises the current
// colour instead of setting one.
const RandomColor = "random"

var (
	ErrFilterLength  = errors.New("config: filter must have exactly 9 entries")
	ErrUnknownPreset = errors.New("config: unknown preset")
)

// Bundle is one configuration record. Nil fields leave the receiver's
// current value unchanged.
type Bundle struct {
	Name       *string    `yaml:"name,omitempty"`
	Persistent *bool      `yaml:"persistent,omitempty"`
	ResetType  *string    `yaml:"reset_type,omitempty"`
	HorSym     *bool      `yaml:"hor_sym,omitempty"`
	VerSym     *bool      `yaml:"ver_sym,omitempty"`
	FullSym    *bool      `yaml:"full_sym,omitempty"`
	Filter     Filter     `yaml:"filter,omitempty"`
	Activation *string    `yaml:"activation,omitempty"`
	Color      *ColorSpec `yaml:"color,omitempty"`
	BgColor    *string    `yaml:"bg_color,omitempty"` // display layer only
	SkipFrames *bool      `yaml:"skip_frames,omitempty"`
}

// Filter holds kernel weights. It decodes from a sequence or from a mapping
// of index to weight, the form exported by the browser version.
type Filter []float64

func (f *Filter) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var vals []float64
		if err := n.Decode(&vals); err != nil {
			return err
		}
		*f = vals
		return nil
	case yaml.MappingNode:
		var byIndex map[string]float64
		if err := n.Decode(&byIndex); err != nil {
			return err
		}
		vals := make([]float64, len(byIndex))
		seen := make([]bool, len(byIndex))
		for k, v := range byIndex {
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 || i >= len(vals) || seen[i] {
				return fmt.Errorf("config: line %d: filter key %q is not an index in [0,%d)", n.Line, k, len(vals))
			}
			vals[i], seen[i] = v, true
		}
		*f = vals
		return nil
	default:
		return fmt.Errorf("config: line %d: filter must be a list", n.Line)
	}
}

// ColorSpec is either an RGB triple or the RandomColor sentinel.
type ColorSpec struct {
	Random bool
	RGB    core.Color
}

func (c *ColorSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		if n.Value != RandomColor {
			return fmt.Errorf("config: line %d: color %q, want [r, g, b] or %q", n.Line, n.Value, RandomColor)
		}
		*c = ColorSpec{Random: true}
		return nil
	}
	var rgb []float32
	if err := n.Decode(&rgb); err != nil {
		return err
	}
	if len(rgb) != 3 {
		return fmt.Errorf("config: line %d: color has %d channels, want 3", n.Line, len(rgb))
	}
	*c = ColorSpec{RGB: core.Color{rgb[0], rgb[1], rgb[2]}}
	return nil
}

func (c ColorSpec) MarshalYAML() (any, error) {
	if c.Random {
		return RandomColor, nil
	}
	return c.RGB[:], nil
}

// Kernel converts the filter, reporting false when no filter is set.
func (b Bundle) Kernel() (core.Kernel, bool, error) {
	if b.Filter == nil {
		return core.Kernel{}, false, nil
	}
	k, err := core.KernelFrom(b.Filter)
	if err != nil {
		return core.Kernel{}, false, fmt.Errorf("%w: %v", ErrFilterLength, err)
	}
	return k, true, nil
}

// Symmetry merges the bundle's symmetry flags over cur.
func (b Bundle) Symmetry(cur core.Symmetry) core.Symmetry {
	if b.HorSym != nil {
		cur.Horizontal = *b.HorSym
	}
	if b.VerSym != nil {
		cur.Vertical = *b.VerSym
	}
	if b.FullSym != nil {
		cur.Full = *b.FullSym
	}
	return cur
}

// Validate checks the fields that can be wrong independently of a
// controller.
func (b Bundle) Validate() error {
	if b.Filter != nil && len(b.Filter) != len(core.Kernel{}) {
		return fmt.Errorf("%w, got %d", ErrFilterLength, len(b.Filter))
	}
	return nil
}

// Label returns the bundle name, or "" when unnamed.
func (b Bundle) Label() string {
	if b.Name == nil {
		return ""
	}
	return *b.Name
}

// Merge returns b with every field set in o copied over it.
func (b Bundle) Merge(o Bundle) Bundle {
	if o.Name != nil {
		b.Name = o.Name
	}
	if o.Persistent != nil {
		b.Persistent = o.Persistent
	}
	if o.ResetType != nil {
		b.ResetType = o.ResetType
	}
	if o.HorSym != nil {
		b.HorSym = o.HorSym
	}
	if o.VerSym != nil {
		b.VerSym = o.VerSym
	}
	if o.FullSym != nil {
		b.FullSym = o.FullSym
	}
	if o.Filter != nil {
		b.Filter = slices.Clone(o.Filter)
	}
	if o.Activation != nil {
		b.Activation = o.Activation
	}
	if o.Color != nil {
		b.Color = o.Color
	}
	if o.BgColor != nil {
		b.BgColor = o.BgColor
	}
	if o.SkipFrames != nil {
		b.SkipFrames = o.SkipFrames
	}
	return b
}

// Overlay decodes data as a bundle and merges it over b. b itself is not
// modified.
func Overlay(b Bundle, data []byte) (Bundle, error) {
	o, err := Decode(data)
	if err != nil {
		return Bundle{}, err
	}
	return b.Merge(o), nil
}

// Encode renders b as YAML, omitting unset fields.
func Encode(b Bundle) ([]byte, error) {
	out, err := yaml.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encoding bundle: %w", err)
	}
	return out, nil
}

// Decode parses a single bundle.
func Decode(data []byte) (Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("parsing bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// Load returns the embedded defaults overlaid with the file at path. If
// path is empty only the defaults are used.
func Load(path string) (Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(defaultsYAML, &b); err != nil {
		return Bundle{}, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Bundle{}, fmt.Errorf("reading config file: %w", err)
		}
		// Only keys present in the file overwrite the defaults.
		if err := yaml.Unmarshal(data, &b); err != nil {
			return Bundle{}, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := b.Validate(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// Defaults returns the embedded default bundle.
func Defaults() Bundle {
	b, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return b
}

var loadPresets = sync.OnceValue(func() map[string]Bundle {
	var raw map[string]Bundle
	if err := yaml.Unmarshal(presetsYAML, &raw); err != nil {
		panic(fmt.Sprintf("config: embedded presets: %v", err))
	}
	for key, b := range raw {
		if err := b.Validate(); err != nil {
			panic(fmt.Sprintf("config: preset %s: %v", key, err))
		}
		if b.Name == nil {
			b.Name = &key
			raw[key] = b
		}
	}
	return raw
})

// Presets lists the embedded preset keys in sorted order.
func Presets() []string {
	p := loadPresets()
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Preset returns the named embedded preset.
func Preset(key string) (Bundle, error) {
	b, ok := loadPresets()[key]
	if !ok {
		return Bundle{}, fmt.Errorf("%w: %q", ErrUnknownPreset, key)
	}
	return b, nil
}
