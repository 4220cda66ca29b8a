// Package blitter resolves sub-cell rendering modes against terminal capabilities.
//
// Each mode maps a block of sub-cells onto a single glyph. When the terminal
// cannot draw a mode it degrades along a fixed ladder:
//
//	Braille → Sextant → Quadrant → Half → Space
//	Pixel   → Sextant → Quadrant → Half → Space
//	Eight   → Four    → Half     → Space
//
// Space is always drawable. Without UTF-8 only Space and Pixel remain.
package blitter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedBlitter is returned when degradation is disabled and the mode cannot be drawn
var ErrUnsupportedBlitter = errors.New("unsupported blitter")

// Blitter is a sub-cell rendering mode
type Blitter uint8

const (
	Default  Blitter = iota // Best mode the terminal supports
	Space                   // 1x1, background colored spaces
	Half                    // 2x1, ▀ ▄
	Quadrant                // 2x2, ▘▝▖▗ and combinations
	Sextant                 // 3x2, U+1FB00 block sextants
	Braille                 // 4x2, U+2800 braille patterns
	Pixel                   // Terminal bitmap protocol
	Four                    // 4x1 vertical levels ▂▄▆█
	Eight                   // 8x1 vertical levels ▁▂▃▄▅▆▇█
)

var blitterNames = [...]string{
	Default:  "default",
	Space:    "space",
	Half:     "half",
	Quadrant: "quadrant",
	Sextant:  "sextant",
	Braille:  "braille",
	Pixel:    "pixel",
	Four:     "four",
	Eight:    "eight",
}

func (b Blitter) String() string {
	if int(b) < len(blitterNames) {
		return blitterNames[b]
	}
	return fmt.Sprintf("blitter(%d)", uint8(b))
}

// Valid returns true for defined modes
func (b Blitter) Valid() bool {
	return int(b) < len(blitterNames)
}

// Parse returns the mode for a case-insensitive name
func Parse(name string) (Blitter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range blitterNames {
		if n == name {
			return Blitter(i), nil
		}
	}
	return Default, fmt.Errorf("%w: %q", ErrUnsupportedBlitter, name)
}

// Capabilities is what the terminal can draw
type Capabilities struct {
	UTF8        bool
	Halfblock   bool
	Quadrant    bool
	Sextant     bool
	Braille     bool
	Pixel       bool
	Truecolor   bool
	PaletteSize int
}

// Supports reports whether mode b can be drawn without degradation
func (c Capabilities) Supports(b Blitter) bool {
	switch b {
	case Space:
		return true
	case Pixel:
		return c.Pixel
	case Half, Four, Eight:
		return c.UTF8 && c.Halfblock
	case Quadrant:
		return c.UTF8 && c.Quadrant
	case Sextant:
		return c.UTF8 && c.Sextant
	case Braille:
		return c.UTF8 && c.Braille
	default:
		return false
	}
}

// next is the degradation ladder, Space is the floor
var next = [...]Blitter{
	Space:    Space,
	Half:     Space,
	Quadrant: Half,
	Sextant:  Quadrant,
	Braille:  Sextant,
	Pixel:    Sextant,
	Four:     Half,
	Eight:    Four,
}

// Degrade returns the next mode down the ladder
func Degrade(b Blitter) Blitter {
	if b == Default || !b.Valid() {
		return Space
	}
	return next[b]
}

// Options control selection
type Options struct {
	NoDegrade   bool // Fail instead of stepping down the ladder
	PreferPixel bool // Default starts from the pixel ladder
}

// Select resolves req against caps
// The result is supported by caps, so selecting it again returns it unchanged.
func Select(req Blitter, caps Capabilities, opts Options) (Blitter, error) {
	if !req.Valid() {
		return Space, fmt.Errorf("select %s: %w", req, ErrUnsupportedBlitter)
	}

	b := req
	if req == Default {
		b = Braille
		if opts.PreferPixel {
			b = Pixel
		}
	} else if opts.NoDegrade && !caps.Supports(req) {
		return req, fmt.Errorf("select %s: %w", req, ErrUnsupportedBlitter)
	}

	for !caps.Supports(b) {
		b = next[b]
	}
	return b, nil
}
