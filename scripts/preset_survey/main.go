package main

import (
	"fmt"

	"convca/internal/config"
	"convca/internal/headless"
)

func main() {
	presets := config.Presets()
	fmt.Printf("surveying %d presets\n", len(presets))
	for _, key := range presets {
		b, err := config.Preset(key)
		if err != nil {
			fmt.Printf("%s: %v\n", key, err)
			continue
		}
		res, err := headless.Run(headless.Options{Width: 128, Height: 128, Frames: 240, Seed: 7, Bundle: b})
		if err != nil {
			fmt.Printf("%s: %v\n", key, err)
			continue
		}
		fmt.Printf("%-12s mean=%.3f peak=%.3f activity=%.3f lastActive=%d/%d ticks=%d score=%.4f\n",
			key, res.MeanLevel, res.PeakLevel, res.Activity, res.LastActiveFrame, res.Frames, res.Ticks, res.Score())
	}
}
