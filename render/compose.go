// Package render composes a pile into a frame and rasterizes frames into
// terminal output.
//
// Render is the compositing phase: it walks the plane tree bottom to top and
// resolves every framebuffer position against the planes covering it. The
// Rasterizer is the output phase: it serializes a frame into escape sequences,
// emitting only what changed since the previous frame.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lixenwraith/stackterm/cell"
	"github.com/lixenwraith/stackterm/plane"
)

// ErrPileEmpty is returned when rendering a pile without planes
var ErrPileEmpty = errors.New("pile has no planes")

// Frame is a composed, fully opaque framebuffer
type Frame struct {
	Rows  int
	Cols  int
	Cells []cell.Cell
}

// NewFrame returns a frame filled with c
func NewFrame(rows, cols int, c cell.Cell) *Frame {
	f := &Frame{Rows: rows, Cols: cols, Cells: make([]cell.Cell, rows*cols)}
	for i := range f.Cells {
		f.Cells[i] = c
	}
	return f
}

// At returns the cell at (row, col), the zero cell outside the frame
func (f *Frame) At(row, col int) cell.Cell {
	if row < 0 || col < 0 || row >= f.Rows || col >= f.Cols {
		return cell.Cell{}
	}
	return f.Cells[row*f.Cols+col]
}

// String dumps the glyphs row by row, empty cells as spaces
func (f *Frame) String() string {
	var sb strings.Builder
	for r := 0; r < f.Rows; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for _, c := range f.Cells[r*f.Cols : (r+1)*f.Cols] {
			switch {
			case c.IsBackstop():
			case c.Glyph() == 0:
				sb.WriteByte(' ')
			default:
				sb.WriteRune(c.Glyph())
			}
		}
	}
	return sb.String()
}

// layer is one plane clipped into frame coordinates
type layer struct {
	p    *plane.Plane
	abs  plane.Offset
	rows int
	cols int
}

// Render composes pile into a frame of the pile's size
//
// For each position the topmost plane whose effective cell carries a glyph
// supplies glyph and style. Foreground and background resolve independently:
// transparent channels fall through, opaque channels stop the search and blend
// channels are mixed half and half over what lies beneath. Whatever stays
// unresolved comes from the pile base cell.
func Render(pile *plane.Pile) (*Frame, error) {
	if pile.Planes() == 0 {
		return nil, ErrPileEmpty
	}

	var layers []layer
	err := pile.Walk(func(p *plane.Plane, abs plane.Offset) error {
		rows, cols, err := p.Size()
		if err != nil {
			return err
		}
		layers = append(layers, layer{p: p, abs: abs, rows: rows, cols: cols})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	rows, cols := pile.Size()
	base := pile.Base()
	frame := NewFrame(rows, cols, base)
	// Layer that supplied each glyph, -1 for the pile base
	source := make([]int, rows*cols)

	var fgBlend, bgBlend []cell.Channel
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out, src, err := composeCell(layers, base, r, c, &fgBlend, &bgBlend)
			if err != nil {
				return nil, fmt.Errorf("render %d,%d: %w", r, c, err)
			}
			frame.Cells[r*cols+c] = out
			source[r*cols+c] = src
		}
	}

	fixWide(frame, source)
	return frame, nil
}

func composeCell(layers []layer, base cell.Cell, row, col int, fgBlend, bgBlend *[]cell.Channel) (cell.Cell, int, error) {
	var (
		out            cell.Cell
		src            = -1
		fg, bg         cell.Channel
		fgDone, bgDone bool
	)
	*fgBlend = (*fgBlend)[:0]
	*bgBlend = (*bgBlend)[:0]

	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		lr, lc := row-l.abs.Row, col-l.abs.Col
		if lr < 0 || lc < 0 || lr >= l.rows || lc >= l.cols {
			continue
		}
		cur, err := l.p.CellAt(lr, lc)
		if err != nil {
			return out, src, err
		}

		if src < 0 && !cur.IsEmpty() {
			out = cur
			src = i
		}
		if !fgDone {
			fg, fgDone = resolve(cur.Fg(), fgBlend)
		}
		if !bgDone {
			bg, bgDone = resolve(cur.Bg(), bgBlend)
		}
		if src >= 0 && fgDone && bgDone {
			break
		}
	}

	if src < 0 {
		out = base
	}
	if !fgDone {
		fg = base.Fg()
	}
	if !bgDone {
		bg = base.Bg()
	}
	// Blends apply bottom up, each mixing half over the result so far
	for i := len(*fgBlend) - 1; i >= 0; i-- {
		fg = cell.BlendRGB(fg, (*fgBlend)[i], 0.5)
	}
	for i := len(*bgBlend) - 1; i >= 0; i-- {
		bg = cell.BlendRGB(bg, (*bgBlend)[i], 0.5)
	}

	out.SetChannels(cell.NewChannels(fg.WithAlpha(cell.AlphaOpaque), bg.WithAlpha(cell.AlphaOpaque)))
	return out, src, nil
}

// resolve applies one channel of the compositing rule, done is true once an opaque channel is found
func resolve(ch cell.Channel, blends *[]cell.Channel) (cell.Channel, bool) {
	switch ch.Alpha() {
	case cell.AlphaTransparent:
		return 0, false
	case cell.AlphaBlend:
		*blends = append(*blends, ch)
		return 0, false
	default:
		return ch, true
	}
}

// fixWide replaces halves of wide glyphs that lost their partner to clipping
// or to another plane with spaces
func fixWide(f *Frame, source []int) {
	for r := 0; r < f.Rows; r++ {
		row := f.Cells[r*f.Cols : (r+1)*f.Cols]
		src := source[r*f.Cols : (r+1)*f.Cols]
		for c := range row {
			switch {
			case row[c].IsWide():
				if c+1 >= f.Cols || !row[c+1].IsBackstop() || src[c+1] != src[c] {
					row[c].SetGlyph(' ')
				}
			case row[c].IsBackstop():
				if c == 0 || !row[c-1].IsWide() || src[c-1] != src[c] {
					row[c].SetGlyph(' ')
				}
			}
		}
	}
}
