// Package cell defines the packed display cell: glyph, width, style and a
// foreground/background channel pair.
//
// A Cell is a fixed 16-byte value. The layout is an in-memory detail exposed only
// through accessors; Bytes/FromBytes document it for callers that need to share
// cells across process boundaries:
//
//	byte  0-3   glyph codepoint (little endian, 0 = empty)
//	byte  4     backstop marker (0xff on the trailing half of a wide glyph)
//	byte  5     width in columns (1 or 2, 0 for a backstop)
//	byte  6-7   style bits (little endian)
//	byte  8-11  foreground channel (little endian)
//	byte 12-15  background channel (little endian)
package cell

import (
	"encoding/binary"

	"github.com/mattn/go-runewidth"
)

// BackstopMarker flags the non-primary half of a multi-column glyph
const BackstopMarker uint8 = 0xff

// Cell is one grid position
type Cell struct {
	glyph    uint32
	backstop uint8
	width    uint8
	style    Style
	channels Channels
}

// New returns a cell holding glyph with default style and channels
func New(glyph rune) Cell {
	var c Cell
	c.SetGlyph(glyph)
	return c
}

// Load returns a fully specified cell
func Load(glyph rune, style Style, channels Channels) Cell {
	c := New(glyph)
	c.style = style & StyleMask
	c.channels = channels
	return c
}

// LoadWidth is Load with the column width decided by the caller, clamped to [1,2]
// Used for grapheme clusters, whose width can exceed that of their leading codepoint
func LoadWidth(glyph rune, width int, style Style, channels Channels) Cell {
	c := Load(glyph, style, channels)
	if glyph != 0 {
		c.width = uint8(min(max(width, 1), 2))
	}
	return c
}

// Backstop returns the trailing-half cell of a wide primary
// Style and channels mirror the primary, the glyph is never stored
func Backstop(primary Cell) Cell {
	return Cell{
		backstop: BackstopMarker,
		style:    primary.style,
		channels: primary.channels,
	}
}

// GlyphWidth returns the column width of r clamped to [1,2]
func GlyphWidth(r rune) int {
	w := runewidth.RuneWidth(r)
	if w < 1 {
		return 1
	}
	if w > 2 {
		return 2
	}
	return w
}

// Glyph returns the stored codepoint, 0 for empty and backstop cells
func (c Cell) Glyph() rune {
	return rune(c.glyph)
}

// SetGlyph stores r and recomputes the width, clearing any backstop marker
func (c *Cell) SetGlyph(r rune) {
	c.glyph = uint32(r)
	c.backstop = 0
	if r == 0 {
		c.width = 1
		return
	}
	c.width = uint8(GlyphWidth(r))
}

// Width returns the number of columns the glyph occupies
func (c Cell) Width() int {
	return int(c.width)
}

// IsWide returns true for a two-column primary
func (c Cell) IsWide() bool {
	return c.width == 2 && c.backstop == 0
}

// IsBackstop returns true for the trailing half of a wide glyph
func (c Cell) IsBackstop() bool {
	return c.backstop == BackstopMarker
}

// IsEmpty returns true if the cell carries no glyph and is not a backstop
func (c Cell) IsEmpty() bool {
	return c.glyph == 0 && c.backstop == 0
}

// Styles returns the style bitset
func (c Cell) Styles() Style {
	return c.style
}

// SetStyles replaces the style bitset
func (c *Cell) SetStyles(s Style) {
	c.style = s & StyleMask
}

// AddStyles sets the given attributes
func (c *Cell) AddStyles(s Style) {
	c.style = c.style.Add(s & StyleMask)
}

// RemoveStyles clears the given attributes
func (c *Cell) RemoveStyles(s Style) {
	c.style = c.style.Remove(s)
}

// Channels returns the channel pair
func (c Cell) Channels() Channels {
	return c.channels
}

// SetChannels replaces the channel pair
func (c *Cell) SetChannels(cp Channels) {
	c.channels = cp
}

// Fg returns the foreground channel
func (c Cell) Fg() Channel {
	return c.channels.Fg()
}

// Bg returns the background channel
func (c Cell) Bg() Channel {
	return c.channels.Bg()
}

// SetFg replaces the foreground channel
func (c *Cell) SetFg(ch Channel) {
	c.channels = c.channels.WithFg(ch)
}

// SetBg replaces the background channel
func (c *Cell) SetBg(ch Channel) {
	c.channels = c.channels.WithBg(ch)
}

// Bytes encodes the cell in its documented 16-byte layout
func (c Cell) Bytes() [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint32(b[0:4], c.glyph)
	b[4] = c.backstop
	b[5] = c.width
	binary.LittleEndian.PutUint16(b[6:8], uint16(c.style))
	binary.LittleEndian.PutUint32(b[8:12], uint32(c.channels.Fg()))
	binary.LittleEndian.PutUint32(b[12:16], uint32(c.channels.Bg()))
	return b
}

// FromBytes decodes a cell produced by Bytes
// A backstop marker drops any glyph to keep the backstop invariant
func FromBytes(b [16]byte) Cell {
	c := Cell{
		glyph:    binary.LittleEndian.Uint32(b[0:4]),
		backstop: b[4],
		width:    b[5],
		style:    Style(binary.LittleEndian.Uint16(b[6:8])) & StyleMask,
		channels: NewChannels(
			Channel(binary.LittleEndian.Uint32(b[8:12])),
			Channel(binary.LittleEndian.Uint32(b[12:16])),
		),
	}
	if c.backstop != 0 {
		c.backstop = BackstopMarker
		c.glyph = 0
		c.width = 0
	}
	return c
}
