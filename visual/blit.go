package visual

import (
	"fmt"
	"math/bits"

	"github.com/lixenwraith/stackterm/blitter"
	"github.com/lixenwraith/stackterm/cell"
	"github.com/lixenwraith/stackterm/plane"
	"github.com/lucasb-eyer/go-colorful"
)

// Scale controls how the buffer is fitted to the plane
type Scale uint8

const (
	ScaleNone    Scale = iota // One pixel per sub-cell from the top-left, clipped
	ScaleStretch              // Fill the plane from (Row, Col) to its bottom-right corner
)

// alphaCutoff is the alpha below which a pixel counts as transparent
const alphaCutoff = 0x80

// Options configure Blit
type Options struct {
	Blitter   blitter.Blitter
	NoDegrade bool
	Scale     Scale
	Row       int // Plane-local cell where drawing starts
	Col       int
}

// Blit draws the visual onto p and returns the blitter used
// Cells whose sub-cells are all transparent are left untouched. Pixel output
// needs a bitmap protocol driver and fails with ErrUnsupportedBlitter.
func (v *Visual) Blit(p *plane.Plane, caps blitter.Capabilities, opts Options) (blitter.Blitter, error) {
	b, err := blitter.Select(opts.Blitter, caps, blitter.Options{NoDegrade: opts.NoDegrade})
	if err != nil {
		return b, fmt.Errorf("blit: %w", err)
	}
	if b == blitter.Pixel {
		return b, fmt.Errorf("blit: pixel output: %w", blitter.ErrUnsupportedBlitter)
	}

	prows, pcols, err := p.Size()
	if err != nil {
		return b, fmt.Errorf("blit: %w", err)
	}

	sr, sc := blitter.Geometry(b)
	var rows, cols int
	switch opts.Scale {
	case ScaleStretch:
		rows, cols = prows-opts.Row, pcols-opts.Col
	default:
		rows = (v.height + sr - 1) / sr
		cols = (v.width + sc - 1) / sc
	}
	if rows < 1 || cols < 1 {
		return b, nil
	}
	gridH, gridW := rows*sr, cols*sc

	patterns := candidatePatterns(b)
	sub := make([]subPixel, sr*sc)

	for cr := 0; cr < rows; cr++ {
		row := opts.Row + cr
		if row < 0 || row >= prows {
			continue
		}
		for cc := 0; cc < cols; cc++ {
			col := opts.Col + cc
			if col < 0 || col >= pcols {
				continue
			}

			opaque := 0
			for i := range sub {
				gy := cr*sr + i/sc
				gx := cc*sc + i%sc
				var px, py int
				if opts.Scale == ScaleStretch {
					px = (gx*v.width + v.width/2) / gridW
					py = (gy*v.height + v.height/2) / gridH
				} else {
					px, py = gx, gy
				}
				sub[i] = samplePixel(v, px, py)
				if sub[i].opaque {
					opaque++
				}
			}
			if opaque == 0 {
				continue
			}

			c, ok := bestCell(b, sub, patterns)
			if !ok {
				continue
			}
			if err := p.WriteCell(row, col, c); err != nil {
				return b, fmt.Errorf("blit: %w", err)
			}
		}
	}
	return b, nil
}

type subPixel struct {
	color  colorful.Color
	opaque bool
}

func samplePixel(v *Visual, x, y int) subPixel {
	r, g, b, a := v.At(x, y)
	if a < alphaCutoff {
		return subPixel{}
	}
	return subPixel{
		color:  colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255},
		opaque: true,
	}
}

// candidatePatterns lists the masks a blitter can draw
// Level blitters only draw bars filled from the bottom.
func candidatePatterns(b blitter.Blitter) []uint8 {
	rows, cols := blitter.Geometry(b)
	switch b {
	case blitter.Space:
		return []uint8{0}
	case blitter.Four, blitter.Eight:
		out := make([]uint8, 0, rows+1)
		var m uint8
		out = append(out, m)
		for r := rows - 1; r >= 0; r-- {
			m |= 1 << r
			out = append(out, m)
		}
		return out
	}
	n := 1 << (rows * cols)
	out := make([]uint8, n)
	for i := range out {
		out[i] = uint8(i)
	}
	return out
}

// bestCell picks the pattern whose two-color split has the least squared error
// With transparent sub-cells the background must stay transparent, so the
// widest pattern covering only opaque sub-cells wins. ok is false when nothing
// can be drawn.
func bestCell(b blitter.Blitter, sub []subPixel, patterns []uint8) (c cell.Cell, ok bool) {
	var transparent uint8
	for i, s := range sub {
		if !s.opaque {
			transparent |= 1 << i
		}
	}

	if b == blitter.Space {
		// A space shows only its background
		avg, _ := average(sub, 0, false)
		ch := toChannel(avg)
		return cell.Load(' ', cell.StyleNone, cell.NewChannels(ch, ch)), true
	}

	if transparent != 0 {
		var best uint8
		for _, m := range patterns {
			if m&transparent == 0 && bits.OnesCount8(m) > bits.OnesCount8(best) {
				best = m
			}
		}
		if best == 0 {
			return cell.Cell{}, false
		}
		fg, _ := average(sub, best, true)
		bg := cell.DefaultChannel.WithAlpha(cell.AlphaTransparent)
		return cell.Load(blitter.Encode(b, best), cell.StyleNone, cell.NewChannels(toChannel(fg), bg)), true
	}

	bestErr := -1.0
	var bestMask uint8
	var bestFg, bestBg colorful.Color
	for _, m := range patterns {
		fg, fgOK := average(sub, m, true)
		bg, bgOK := average(sub, m, false)
		if !fgOK {
			fg = bg
		}
		if !bgOK {
			bg = fg
		}

		var e float64
		for i, s := range sub {
			target := bg
			if m&(1<<i) != 0 {
				target = fg
			}
			e += distanceSq(s.color, target)
		}
		if bestErr < 0 || e < bestErr {
			bestErr = e
			bestMask = m
			bestFg, bestBg = fg, bg
		}
	}
	return cell.Load(blitter.Encode(b, bestMask), cell.StyleNone, cell.NewChannels(toChannel(bestFg), toChannel(bestBg))), true
}

// average returns the mean color of the opaque sub-cells inside (fg) or outside mask
func average(sub []subPixel, mask uint8, fg bool) (colorful.Color, bool) {
	var r, g, b float64
	n := 0
	for i, s := range sub {
		if !s.opaque || (mask&(1<<i) != 0) != fg {
			continue
		}
		lr, lg, lb := s.color.LinearRgb()
		r, g, b = r+lr, g+lg, b+lb
		n++
	}
	if n == 0 {
		return colorful.Color{}, false
	}
	return colorful.LinearRgb(r/float64(n), g/float64(n), b/float64(n)), true
}

func distanceSq(a, b colorful.Color) float64 {
	dr, dg, db := a.R-b.R, a.G-b.G, a.B-b.B
	return dr*dr + dg*dg + db*db
}

func toChannel(c colorful.Color) cell.Channel {
	r, g, b := c.Clamped().RGB255()
	return cell.RGB(r, g, b)
}
