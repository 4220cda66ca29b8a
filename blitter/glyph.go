package blitter

import "math/bits"

// Masks hold one bit per sub-cell in row-major order: bit (row*cols + col).

// Geometry returns the sub-cell grid of a glyph mode, zero for Default and Pixel
func Geometry(b Blitter) (rows, cols int) {
	switch b {
	case Space:
		return 1, 1
	case Half:
		return 2, 1
	case Quadrant:
		return 2, 2
	case Sextant:
		return 3, 2
	case Braille:
		return 4, 2
	case Four:
		return 4, 1
	case Eight:
		return 8, 1
	default:
		return 0, 0
	}
}

var (
	halfGlyphs     = []rune(" ▀▄█")
	quadrantGlyphs = []rune(" ▘▝▀▖▌▞▛▗▚▐▜▄▙▟█")
	fourGlyphs     = []rune(" ▂▄▆█")
	eightGlyphs    = []rune(" ▁▂▃▄▅▆▇█")
)

// Dot bit for each braille sub-cell in mask order
// Dots 1-3 run down the left column, 4-6 the right, 7 and 8 are the bottom row
var brailleDots = [8]rune{0x01, 0x08, 0x02, 0x10, 0x04, 0x20, 0x40, 0x80}

const (
	brailleBase = 0x2800
	sextantBase = 0x1fb00
	sextantLast = 0x1fb3b

	// Sextant masks with a pre-existing glyph and no block sextant codepoint
	sextantLeft  = 0x15 // ▌
	sextantRight = 0x2a // ▐
	sextantFull  = 0x3f // █
)

// Encode returns the glyph for mask in mode b, 0 for Default and Pixel
// Bits beyond the mode's sub-cell count are ignored. The vertical level modes
// draw the number of set bits as a bar from the bottom.
func Encode(b Blitter, mask uint8) rune {
	rows, cols := Geometry(b)
	if rows == 0 {
		return 0
	}
	if n := rows * cols; n < 8 {
		mask &= 1<<n - 1
	}

	switch b {
	case Space:
		return ' '
	case Half:
		return halfGlyphs[mask]
	case Quadrant:
		return quadrantGlyphs[mask]
	case Sextant:
		return encodeSextant(mask)
	case Braille:
		var dots rune
		for i, d := range brailleDots {
			if mask&(1<<i) != 0 {
				dots |= d
			}
		}
		return brailleBase + dots
	case Four:
		return fourGlyphs[bits.OnesCount8(mask)]
	case Eight:
		return eightGlyphs[bits.OnesCount8(mask)]
	}
	return 0
}

func encodeSextant(mask uint8) rune {
	switch mask {
	case 0:
		return ' '
	case sextantLeft:
		return '▌'
	case sextantRight:
		return '▐'
	case sextantFull:
		return '█'
	}
	r := sextantBase + rune(mask) - 1
	if mask > sextantLeft {
		r--
	}
	if mask > sextantRight {
		r--
	}
	return r
}

// Decode identifies the smallest glyph set containing r and its sub-cell mask
// Glyphs shared between sets decode to the lowest rung able to draw them.
func Decode(r rune) (b Blitter, mask uint8, ok bool) {
	switch {
	case r == ' ':
		return Space, 0, true
	case r >= brailleBase && r <= brailleBase+0xff:
		dots := r - brailleBase
		for i, d := range brailleDots {
			if dots&d != 0 {
				mask |= 1 << i
			}
		}
		return Braille, mask, true
	case r >= sextantBase && r <= sextantLast:
		m := r - sextantBase + 1
		if m >= sextantLeft {
			m++
		}
		if m >= sextantRight {
			m++
		}
		return Sextant, uint8(m), true
	}

	if i := indexRune(halfGlyphs, r); i >= 0 {
		return Half, uint8(i), true
	}
	if i := indexRune(quadrantGlyphs, r); i >= 0 {
		return Quadrant, uint8(i), true
	}
	if i := indexRune(fourGlyphs, r); i >= 0 {
		return Four, bottomFill(4, i), true
	}
	if i := indexRune(eightGlyphs, r); i >= 0 {
		return Eight, bottomFill(8, i), true
	}
	return Default, 0, false
}

func indexRune(set []rune, r rune) int {
	for i, g := range set {
		if g == r {
			return i
		}
	}
	return -1
}

// bottomFill sets the lowest level sub-rows of a single column mode
func bottomFill(rows, level int) uint8 {
	var m uint8
	for r := rows - level; r < rows; r++ {
		m |= 1 << r
	}
	return m
}

// Resample maps a mask from one geometry onto another by majority vote
// Each source sub-cell votes for the target sub-cell containing its center,
// ties fill.
func Resample(mask uint8, from, to Blitter) uint8 {
	fr, fc := Geometry(from)
	tr, tc := Geometry(to)
	if fr == 0 || tr == 0 {
		return 0
	}

	var set, total [8]int
	for r := 0; r < fr; r++ {
		for c := 0; c < fc; c++ {
			// center of source sub-cell scaled into target grid, integer form of (r+0.5)*tr/fr
			ti := (2*r+1)*tr/(2*fr)*tc + (2*c+1)*tc/(2*fc)
			total[ti]++
			if mask&(1<<(r*fc+c)) != 0 {
				set[ti]++
			}
		}
	}

	var out uint8
	for i := 0; i < tr*tc; i++ {
		if total[i] > 0 && 2*set[i] >= total[i] {
			out |= 1 << i
		}
	}
	return out
}

// Downgrade rewrites a blitter glyph the terminal cannot draw into the best
// drawable glyph on its ladder. Glyphs from no set, and drawable glyphs, are
// returned unchanged. When the result is a space, inverted reports that the
// input glyph was mostly filled and the caller should paint the background with
// the foreground color.
func Downgrade(r rune, caps Capabilities) (out rune, inverted bool) {
	// An encoded glyph may belong to a lower set than its target, e.g. a full
	// sextant is █, so repeat until the glyph is drawable
	for {
		b, mask, ok := Decode(r)
		if !ok || drawable(r, b, caps) {
			return r, false
		}

		target, _ := Select(b, caps, Options{})
		m := Resample(mask, b, target)
		if target == Space {
			return ' ', m != 0
		}
		r = Encode(target, m)
	}
}

// drawable reports whether the terminal can show r, decoded as part of set b
// The half-column blocks are also sextant glyphs, so sextant support covers them
func drawable(r rune, b Blitter, caps Capabilities) bool {
	if caps.Supports(b) {
		return true
	}
	return caps.Supports(Sextant) && (r == Encode(Sextant, sextantLeft) || r == Encode(Sextant, sextantRight))
}
