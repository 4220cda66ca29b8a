package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lixenwraith/stackterm/blitter"
)

func TestParse(t *testing.T) {
	data := `
color = "truecolor"
blitter = "Braille"
no_degrade = true
full_frames = true
driver = "tcell"

[capabilities]
braille = false
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Color != ColorTrueColor || cfg.Driver != DriverTcell || !cfg.NoDegrade || !cfg.FullFrames {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.Debug {
		t.Error("Expected debug to keep its default")
	}
	b, err := cfg.Blitter()
	if err != nil || b != blitter.Braille {
		t.Errorf("Expected braille, got %s %v", b, err)
	}
	if !cfg.BlitterOptions().NoDegrade {
		t.Error("Expected NoDegrade option")
	}
	if !cfg.RasterOptions().NoDiff {
		t.Error("Expected NoDiff option")
	}
	if cfg.Capabilities.Braille == nil || *cfg.Capabilities.Braille {
		t.Error("Expected braille override false")
	}
	if cfg.Capabilities.Sextant != nil {
		t.Error("Expected unset override to stay nil")
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if b, _ := cfg.Blitter(); b != blitter.Default {
		t.Errorf("Expected default blitter, got %s", b)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"Unknown key", `colour = "auto"`, ErrUnknownKey},
		{"Unknown override", "[capabilities]\nsixel = true", ErrUnknownKey},
		{"Bad color", `color = "16"`, ErrInvalidConfig},
		{"Bad blitter", `blitter = "ascii"`, blitter.ErrUnsupportedBlitter},
		{"Bad driver", `driver = "sdl"`, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := Parse([]byte("color = ")); err == nil {
		t.Error("Expected syntax error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stackterm.toml")
	if err := os.WriteFile(path, []byte(`blitter = "half"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b, _ := cfg.Blitter(); b != blitter.Half {
		t.Errorf("Expected half, got %s", b)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}

func TestApply(t *testing.T) {
	detected := blitter.Capabilities{UTF8: true, Halfblock: true, Braille: true, PaletteSize: 16}
	yes, no := true, false

	tests := []struct {
		name string
		cfg  Config
		want blitter.Capabilities
	}{
		{"Auto keeps detection", Config{Color: ColorAuto}, detected},
		{"Truecolor", Config{Color: ColorTrueColor}, blitter.Capabilities{UTF8: true, Halfblock: true, Braille: true, Truecolor: true, PaletteSize: 256}},
		{"256", Config{Color: Color256}, blitter.Capabilities{UTF8: true, Halfblock: true, Braille: true, PaletteSize: 256}},
		{
			"Overrides",
			Config{Color: ColorAuto, Capabilities: Overrides{Braille: &no, Sextant: &yes}},
			blitter.Capabilities{UTF8: true, Halfblock: true, Sextant: true, PaletteSize: 16},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Apply(detected); got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
