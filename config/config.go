// Package config loads engine and demo settings from TOML.
//
// Missing keys keep their defaults; unknown keys are rejected so a typo never
// silently falls back to detection.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/stackterm/blitter"
	"github.com/lixenwraith/stackterm/render"
)

var (
	// ErrInvalidConfig wraps every validation failure
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownKey reports keys the file sets that no field consumes
	ErrUnknownKey = errors.New("unknown config key")
)

// Color modes
const (
	ColorAuto      = "auto"
	ColorTrueColor = "truecolor"
	Color256       = "256"
)

// Output drivers
const (
	DriverTerminal = "terminal"
	DriverTcell    = "tcell"
)

// Config is the complete settings file
type Config struct {
	Color      string `toml:"color"`       // auto | truecolor | 256
	Mode       string `toml:"blitter"`     // blitter name, see blitter.Parse
	NoDegrade  bool   `toml:"no_degrade"`  // fail instead of stepping down the ladder
	FullFrames bool   `toml:"full_frames"` // rasterize every cell every frame
	Debug      bool   `toml:"debug"`
	Driver     string `toml:"driver"` // terminal | tcell

	Capabilities Overrides `toml:"capabilities"`
}

// Overrides force individual capabilities; nil keeps the detected value
type Overrides struct {
	UTF8      *bool `toml:"utf8"`
	Halfblock *bool `toml:"halfblock"`
	Quadrant  *bool `toml:"quadrant"`
	Sextant   *bool `toml:"sextant"`
	Braille   *bool `toml:"braille"`
	Pixel     *bool `toml:"pixel"`
}

// Default returns the settings used without a file
func Default() *Config {
	return &Config{
		Color:  ColorAuto,
		Mode:   blitter.Default.String(),
		Driver: DriverTerminal,
	}
}

// Load reads and validates a TOML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Color) {
	case ColorAuto, ColorTrueColor, Color256:
	default:
		errs = append(errs, fmt.Errorf("color %q: must be one of auto, truecolor, 256", c.Color))
	}

	if _, err := blitter.Parse(c.Mode); err != nil {
		errs = append(errs, fmt.Errorf("blitter: %w", err))
	}

	switch strings.ToLower(c.Driver) {
	case DriverTerminal, DriverTcell:
	default:
		errs = append(errs, fmt.Errorf("driver %q: must be terminal or tcell", c.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Blitter returns the requested blitter
func (c *Config) Blitter() (blitter.Blitter, error) {
	return blitter.Parse(c.Mode)
}

// BlitterOptions returns selection options
func (c *Config) BlitterOptions() blitter.Options {
	return blitter.Options{NoDegrade: c.NoDegrade}
}

// RasterOptions returns rasterizer options
func (c *Config) RasterOptions() render.RasterOptions {
	return render.RasterOptions{NoDiff: c.FullFrames}
}

// Apply layers the color mode and overrides on detected capabilities
func (c *Config) Apply(caps blitter.Capabilities) blitter.Capabilities {
	switch strings.ToLower(c.Color) {
	case ColorTrueColor:
		caps.Truecolor = true
		caps.PaletteSize = 256
	case Color256:
		caps.Truecolor = false
		caps.PaletteSize = 256
	}

	o := c.Capabilities
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&caps.UTF8, o.UTF8)
	set(&caps.Halfblock, o.Halfblock)
	set(&caps.Quadrant, o.Quadrant)
	set(&caps.Sextant, o.Sextant)
	set(&caps.Braille, o.Braille)
	set(&caps.Pixel, o.Pixel)
	return caps
}
