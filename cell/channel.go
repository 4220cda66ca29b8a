package cell

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidAlpha is returned when a raw alpha value is outside the defined states
var ErrInvalidAlpha = errors.New("invalid alpha mode")

// Alpha is the compositing mode of a channel
type Alpha uint8

const (
	AlphaOpaque      Alpha = 0 // Channel color replaces what lies beneath
	AlphaBlend       Alpha = 1 // Channel color is mixed with what lies beneath
	AlphaTransparent Alpha = 2 // Channel is skipped, lower planes show through
)

// Valid returns true for the three defined alpha modes
func (a Alpha) Valid() bool {
	return a <= AlphaTransparent
}

// String returns the alpha mode name
func (a Alpha) String() string {
	switch a {
	case AlphaOpaque:
		return "opaque"
	case AlphaBlend:
		return "blend"
	case AlphaTransparent:
		return "transparent"
	default:
		return fmt.Sprintf("alpha(%d)", uint8(a))
	}
}

// ParseAlpha validates a raw alpha value
func ParseAlpha(v uint32) (Alpha, error) {
	if v > uint32(AlphaTransparent) {
		return AlphaOpaque, fmt.Errorf("%w: %d", ErrInvalidAlpha, v)
	}
	return Alpha(v), nil
}

// Channel is a packed 32-bit color channel
//
//	~DAAP~~~ RRRRRRRR GGGGGGGG BBBBBBBB
//
// D: color set (clear means terminal default), AA: alpha, P: palette indexed (index in B)
type Channel uint32

const (
	channelRGBMask    Channel = 0x00ffffff
	channelPalette    Channel = 0x08000000
	channelAlphaMask  Channel = 0x30000000
	channelAlphaShift         = 28
	channelSet        Channel = 0x40000000
)

// DefaultChannel is an opaque channel using the terminal default color
const DefaultChannel Channel = 0

// RGB returns an opaque channel with the given color
func RGB(r, g, b uint8) Channel {
	return channelSet | Channel(r)<<16 | Channel(g)<<8 | Channel(b)
}

// Hex returns an opaque channel from a 0xRRGGBB value
func Hex(v uint32) Channel {
	return channelSet | Channel(v)&channelRGBMask
}

// Palette returns an opaque channel referencing a 256-color palette index
func Palette(idx uint8) Channel {
	return channelSet | channelPalette | Channel(idx)
}

// IsDefault returns true if the channel uses the terminal default color
func (c Channel) IsDefault() bool {
	return c&channelSet == 0
}

// IsPalette returns true if the channel holds a palette index
func (c Channel) IsPalette() bool {
	return !c.IsDefault() && c&channelPalette != 0
}

// Index returns the palette index of a palette channel
func (c Channel) Index() uint8 {
	return uint8(c & 0xff)
}

// RGB returns the color components, palette entries are resolved through the xterm palette
func (c Channel) RGB() (r, g, b uint8) {
	if c.IsPalette() {
		return PaletteRGB(c.Index())
	}
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex returns the color as 0xRRGGBB
func (c Channel) Hex() uint32 {
	r, g, b := c.RGB()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// WithRGB returns the channel with a new color, alpha preserved
func (c Channel) WithRGB(r, g, b uint8) Channel {
	return c&channelAlphaMask | RGB(r, g, b)
}

// WithDefault returns the channel reset to the terminal default color, alpha preserved
func (c Channel) WithDefault() Channel {
	return c & channelAlphaMask
}

// Alpha returns the alpha mode, undefined raw values clamp to opaque
func (c Channel) Alpha() Alpha {
	a := Alpha((c & channelAlphaMask) >> channelAlphaShift)
	if !a.Valid() {
		return AlphaOpaque
	}
	return a
}

// WithAlpha returns the channel with the given alpha, undefined modes clamp to opaque
func (c Channel) WithAlpha(a Alpha) Channel {
	if !a.Valid() {
		a = AlphaOpaque
	}
	return c&^channelAlphaMask | Channel(a)<<channelAlphaShift
}

// String formats the channel for debugging
func (c Channel) String() string {
	switch {
	case c.IsDefault():
		return fmt.Sprintf("default/%s", c.Alpha())
	case c.IsPalette():
		return fmt.Sprintf("idx%d/%s", c.Index(), c.Alpha())
	default:
		return fmt.Sprintf("#%06x/%s", c.Hex(), c.Alpha())
	}
}

// BlendRGB mixes src over dst by t in [0,1], the result keeps dst's alpha
// Default colors cannot be mixed: a default side yields the other side
func BlendRGB(dst, src Channel, t float64) Channel {
	if src.IsDefault() {
		return dst
	}
	if dst.IsDefault() {
		return dst&channelAlphaMask | src&^channelAlphaMask
	}
	dr, dg, db := dst.RGB()
	sr, sg, sb := src.RGB()
	d := colorful.Color{R: float64(dr) / 255, G: float64(dg) / 255, B: float64(db) / 255}
	s := colorful.Color{R: float64(sr) / 255, G: float64(sg) / 255, B: float64(sb) / 255}
	r, g, b := d.BlendRgb(s, t).Clamped().RGB255()
	return dst.WithRGB(r, g, b)
}

// Channels is a foreground/background channel pair, fg in the high word
type Channels uint64

// NewChannels combines a foreground and background channel
func NewChannels(fg, bg Channel) Channels {
	return Channels(uint64(fg)<<32 | uint64(bg))
}

// Fg returns the foreground channel
func (cp Channels) Fg() Channel {
	return Channel(cp >> 32)
}

// Bg returns the background channel
func (cp Channels) Bg() Channel {
	return Channel(cp & 0xffffffff)
}

// WithFg replaces the foreground channel
func (cp Channels) WithFg(fg Channel) Channels {
	return NewChannels(fg, cp.Bg())
}

// WithBg replaces the background channel
func (cp Channels) WithBg(bg Channel) Channels {
	return NewChannels(cp.Fg(), bg)
}

// Reverse swaps foreground and background
func (cp Channels) Reverse() Channels {
	return NewChannels(cp.Bg(), cp.Fg())
}

// String formats the pair for debugging
func (cp Channels) String() string {
	return fmt.Sprintf("fg=%s bg=%s", cp.Fg(), cp.Bg())
}
