package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"convca/internal/config"
	"convca/internal/core"
	"convca/internal/headless"
)

func main() {
	preset := flag.String("preset", "worms", "preset whose activation and reset strategy are kept")
	count := flag.Int("count", 64, "number of random kernels to evaluate")
	frames := flag.Int("frames", 120, "frames to simulate per kernel")
	workers := flag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	width := flag.Int("width", 96, "grid width for sweep runs")
	height := flag.Int("height", 96, "grid height for sweep runs")
	seed := flag.Int64("seed", 1337, "seed for kernels and initial states")
	hsym := flag.Bool("hsym", false, "mirror the top row onto the bottom row")
	vsym := flag.Bool("vsym", false, "mirror the left column onto the right column")
	fsym := flag.Bool("fsym", true, "corner/edge/centre symmetry")
	top := flag.Int("top", 5, "results to print")
	emit := flag.Bool("emit", false, "print the best kernel as a YAML bundle")
	flag.Parse()

	base, err := config.Preset(*preset)
	if err != nil {
		log.Fatal(err)
	}
	sym := core.Symmetry{Horizontal: *hsym, Vertical: *vsym, Full: *fsym}
	kernels := headless.Candidates(*seed, *count, -1, 1, sym)

	fmt.Printf("Sweeping %d kernels for %q (%d workers, %d frames, %dx%d)\n",
		len(kernels), base.Label(), *workers, *frames, *width, *height)

	start := time.Now()
	recs := headless.Sweep(headless.Options{
		Width:  *width,
		Height: *height,
		Frames: *frames,
		Seed:   *seed,
		Bundle: base,
	}, kernels, *workers)
	elapsed := time.Since(start)

	failed := 0
	for _, rec := range recs {
		if rec.Err != nil {
			failed++
		}
	}

	fmt.Printf("\nTop %d results (elapsed %s, %d failed):\n", min(*top, len(recs)-failed), elapsed.Round(time.Millisecond), failed)
	for i := 0; i < len(recs) && i < *top; i++ {
		rec := recs[i]
		if rec.Err != nil {
			break
		}
		res := rec.Result
		fmt.Printf("%2d) score=%.4f activity=%.3f mean=%.3f peak=%.3f lastActive=%d kernel=%v\n",
			i+1, res.Score(), res.Activity, res.MeanLevel, res.PeakLevel, res.LastActiveFrame, rec.Kernel.LogValue())
	}

	if !*emit || len(recs) == 0 || recs[0].Err != nil {
		return
	}
	best := recs[0]
	name := fmt.Sprintf("%s sweep #%d", base.Label(), best.Index)
	filter := make(config.Filter, len(best.Kernel))
	for i, w := range best.Kernel {
		filter[i] = float64(w)
	}
	out, err := config.Encode(base.Merge(config.Bundle{Name: &name, Filter: filter}))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println()
	os.Stdout.Write(out)
}
