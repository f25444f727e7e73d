package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"convca/internal/core"
	"convca/internal/gpu"
	"convca/internal/render"
)

func TestDecodeColor(t *testing.T) {
	b, err := Decode([]byte("color: random\n"))
	if err != nil {
		t.Fatal(err)
	}
	if b.Color == nil || !b.Color.Random {
		t.Fatalf("color %+v, want random sentinel", b.Color)
	}

	b, err = Decode([]byte("color: [1, 0.5, 0]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if b.Color == nil || b.Color.Random || b.Color.RGB != (core.Color{1, 0.5, 0}) {
		t.Fatalf("color %+v", b.Color)
	}

	for _, bad := range []string{"color: blue\n", "color: [1, 0]\n"} {
		if _, err := Decode([]byte(bad)); err == nil {
			t.Fatalf("%q decoded without error", bad)
		}
	}
}

func TestDecodeFilter(t *testing.T) {
	b, err := Decode([]byte("filter: [1, 2, 3, 4, 5, 6, 7, 8, 9]\n"))
	if err != nil {
		t.Fatal(err)
	}
	k, ok, err := b.Kernel()
	if err != nil || !ok {
		t.Fatalf("kernel ok=%v err=%v", ok, err)
	}
	if k != (core.Kernel{1, 2, 3, 4, 5, 6, 7, 8, 9}) {
		t.Fatalf("kernel %v", k)
	}

	indexed := `filter: {"2": 3, "0": 1, "1": 2, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9}`
	b, err = Decode([]byte(indexed))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(b.Filter, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}) {
		t.Fatalf("indexed filter decoded as %v", b.Filter)
	}

	for _, bad := range []string{
		"filter: [1, 2, 3]\n",
		"filter: [1, 2, 3, 4, 5, 6, 7, 8, 9, 10]\n",
	} {
		if _, err := Decode([]byte(bad)); !errors.Is(err, ErrFilterLength) {
			t.Fatalf("%q returned %v, want ErrFilterLength", bad, err)
		}
	}
	if _, err := Decode([]byte(`filter: {"a": 1}`)); err == nil {
		t.Fatal("non-index filter key accepted")
	}
}

func TestAbsentFieldsStayNil(t *testing.T) {
	b, err := Decode([]byte("name: partial\nskip_frames: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if b.Label() != "partial" || b.SkipFrames == nil || !*b.SkipFrames {
		t.Fatalf("decoded %+v", b)
	}
	if b.Persistent != nil || b.ResetType != nil || b.Activation != nil || b.Color != nil || b.Filter != nil {
		t.Fatal("absent keys must stay unset")
	}
	if _, ok, _ := b.Kernel(); ok {
		t.Fatal("kernel reported without a filter")
	}
}

func TestSymmetryMerge(t *testing.T) {
	b, err := Decode([]byte("hor_sym: true\nfull_sym: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	got := b.Symmetry(core.Symmetry{Vertical: true, Full: true})
	if got != (core.Symmetry{Horizontal: true, Vertical: true}) {
		t.Fatalf("merged symmetry %+v", got)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	def := Defaults()
	if def.Label() != "default" || def.ResetType == nil || *def.ResetType != string(core.StrategyRandom) {
		t.Fatalf("defaults %+v", def)
	}
	if def.Color == nil || !def.Color.Random {
		t.Fatal("default colour should be random")
	}

	path := filepath.Join(t.TempDir(), "rule.yaml")
	data := "reset_type: center\npersistent: true\nfilter: [0, 0, 0, 0, 1, 0, 0, 0, 0]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *b.ResetType != "center" || !*b.Persistent {
		t.Fatalf("file values not applied: %+v", b)
	}
	if b.Label() != "default" || *b.Activation != "x" {
		t.Fatal("keys absent from the file should keep their defaults")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file loaded")
	}
}

func TestPresets(t *testing.T) {
	names := Presets()
	if !slices.IsSorted(names) || !slices.Contains(names, "gameoflife") {
		t.Fatalf("presets %v", names)
	}
	dev := render.NewSoftware()
	for _, name := range names {
		b, err := Preset(name)
		if err != nil {
			t.Fatal(err)
		}
		if b.Label() == "" {
			t.Fatalf("preset %s has no name", name)
		}
		if _, ok, err := b.Kernel(); !ok || err != nil {
			t.Fatalf("preset %s kernel ok=%v err=%v", name, ok, err)
		}
		if b.ResetType == nil || !core.Known(core.Strategy(*b.ResetType)) {
			t.Fatalf("preset %s has unknown reset type", name)
		}
		if b.Activation == nil {
			t.Fatalf("preset %s has no activation", name)
		}
		// Every preset expression must also run on the software device.
		if _, err := dev.Compile(gpu.Source{Fragment: "preset", Activation: *b.Activation}); err != nil {
			t.Fatalf("preset %s activation: %v", name, err)
		}
	}
	if _, err := Preset("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("unknown preset returned %v", err)
	}
}

func TestOverlayLeavesBaseUntouched(t *testing.T) {
	base, err := Preset("worms")
	if err != nil {
		t.Fatal(err)
	}
	act := *base.Activation
	b, err := Overlay(base, []byte("activation: \"x*x\"\nreset_type: center\nfilter: [0, 0, 0, 0, 1, 0, 0, 0, 0]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if *b.Activation != "x*x" || *b.ResetType != "center" || b.Filter[4] != 1 {
		t.Fatalf("overlay not applied: %+v", b)
	}
	if b.Label() != "Worms" {
		t.Fatalf("name %q should come from the base", b.Label())
	}
	again, err := Preset("worms")
	if err != nil {
		t.Fatal(err)
	}
	if *again.Activation != act || *again.ResetType != "random" {
		t.Fatal("overlay mutated the embedded preset")
	}
	if _, err := Overlay(base, []byte("filter: [1]\n")); !errors.Is(err, ErrFilterLength) {
		t.Fatalf("bad overlay returned %v", err)
	}
}

func TestEncodeOmitsUnsetFields(t *testing.T) {
	b := Bundle{
		Name:       ptr("sweep"),
		Persistent: ptr(false),
		Filter:     Filter{1, 1, 1, 1, 9, 1, 1, 1, 1},
		Color:      &ColorSpec{Random: true},
	}
	out, err := Encode(b)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Decode(out)
	if err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if back.Label() != "sweep" || back.Persistent == nil || *back.Persistent {
		t.Fatalf("round trip lost fields: %s", out)
	}
	if back.Color == nil || !back.Color.Random || !slices.Equal(back.Filter, b.Filter) {
		t.Fatalf("round trip lost colour or filter: %s", out)
	}
	if back.Activation != nil || back.ResetType != nil || back.SkipFrames != nil {
		t.Fatalf("unset fields were written: %s", out)
	}
}

func ptr[T any](v T) *T { return &v }
