package app

import (
	"flag"
	"fmt"
	"log/slog"

	"convca/internal/config"
)

// Config represents the command-line parameters for the application.
type Config struct {
	Width  int
	Height int
	Scale  int
	TPS    int
	Seed   int64
	Config string
	Preset string
	Paused bool
	Brush  int
	Debug  bool
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Width: 320, Height: 240, Scale: 3, TPS: 60, Seed: 42, Brush: 25}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Width, "width", c.Width, "grid width in cells")
	fs.IntVar(&c.Height, "height", c.Height, "grid height in cells")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for kernels, colours and states")
	fs.StringVar(&c.Config, "config", c.Config, "YAML bundle overlaid on the defaults")
	fs.StringVar(&c.Preset, "preset", c.Preset, "embedded preset to start with (overrides -config)")
	fs.BoolVar(&c.Paused, "paused", c.Paused, "start paused")
	fs.IntVar(&c.Brush, "brush", c.Brush, "paint brush edge length in cells")
	fs.BoolVar(&c.Debug, "v", c.Debug, "debug logging")
}

// Validate rejects values the engine cannot use.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("grid %dx%d must be positive", c.Width, c.Height)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("scale %d must be positive", c.Scale)
	}
	if c.TPS <= 0 {
		return fmt.Errorf("tps %d must be positive", c.TPS)
	}
	if c.Brush <= 0 {
		return fmt.Errorf("brush %d must be positive", c.Brush)
	}
	return nil
}

// LogLevel maps the -v flag onto a slog level.
func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// StartupBundle returns the preset named by -preset, or the embedded
// defaults overlaid with the -config file.
func (c *Config) StartupBundle() (config.Bundle, error) {
	if c.Preset != "" {
		return config.Preset(c.Preset)
	}
	return config.Load(c.Config)
}
