package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"os"
	"strings"

	"convca/internal/app"
	"convca/internal/config"
	"convca/internal/headless"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	frames := flag.Int("frames", 120, "frames to simulate before writing the image")
	out := flag.String("o", "snapshot.png", "output PNG path")
	var overrides kvList
	flag.Var(&overrides, "set", "bundle override in key=value form, e.g. activation=abs(x) (repeatable)")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	bundle, err := cfg.StartupBundle()
	if err != nil {
		log.Fatal(err)
	}
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			log.Fatalf("override %q is not key=value", kv)
		}
		bundle, err = config.Overlay(bundle, []byte(key+": "+value))
		if err != nil {
			log.Fatalf("override %q: %v", kv, err)
		}
	}

	res, err := headless.Run(headless.Options{
		Width:  cfg.Width,
		Height: cfg.Height,
		Frames: *frames,
		Seed:   cfg.Seed,
		Bundle: bundle,
		Logger: logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	if err := png.Encode(f, res.Image); err != nil {
		f.Close()
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}

	name := res.Name
	if name == "" {
		name = "custom"
	}
	fmt.Printf("%s: %d frames (%d ticks) on %dx%d, mean %.3f peak %.3f activity %.3f, last change at frame %d\n",
		name, res.Frames, res.Ticks, cfg.Width, cfg.Height, res.MeanLevel, res.PeakLevel, res.Activity, res.LastActiveFrame)
	fmt.Printf("kernel %v\n", res.Kernel.LogValue())
	fmt.Printf("wrote %s\n", *out)
}
