package render

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/lixenwraith/stackterm/blitter"
	"github.com/lixenwraith/stackterm/cell"
)

// ErrOutput wraps failures of the output sink
var ErrOutput = errors.New("output failed")

// Output receives rasterized bytes
type Output interface {
	Write(p []byte) error
}

// WriterOutput adapts an io.Writer to Output
type WriterOutput struct {
	W io.Writer
}

func (o WriterOutput) Write(p []byte) error {
	_, err := o.W.Write(p)
	return err
}

// RasterOptions configure a Rasterizer
type RasterOptions struct {
	NoDiff bool // Re-emit every cell on every frame
}

// Stats describes one Rasterize call
type Stats struct {
	Cells      int // Cells emitted
	Bytes      int // Bytes accepted by the output
	Downgraded int // Glyphs rewritten for missing blitter support
}

// outputSink counts bytes accepted by the Output
type outputSink struct {
	out Output
	n   int
}

func (s *outputSink) Write(p []byte) (int, error) {
	if err := s.out.Write(p); err != nil {
		return 0, err
	}
	s.n += len(p)
	return len(p), nil
}

// Rasterizer serializes frames into terminal output, diffing against the last frame
type Rasterizer struct {
	caps blitter.Capabilities
	opts RasterOptions

	sink *outputSink
	w    *bufio.Writer

	front      []cell.Cell
	rows       int
	cols       int
	frontValid bool

	cursorRow   int
	cursorCol   int
	cursorValid bool

	// Style state for coalescing
	lastFg    cell.Channel
	lastBg    cell.Channel
	lastStyle cell.Style
	lastValid bool

	warnedDowngrade bool
}

// NewRasterizer creates a rasterizer writing to out for a terminal with caps
func NewRasterizer(out Output, caps blitter.Capabilities, opts RasterOptions) *Rasterizer {
	sink := &outputSink{out: out}
	return &Rasterizer{
		caps: caps,
		opts: opts,
		sink: sink,
		w:    bufio.NewWriterSize(sink, 131072), // 128KB buffer
	}
}

// Invalidate forgets the last frame so the next Rasterize re-emits every cell
func (r *Rasterizer) Invalidate() {
	r.frontValid = false
	r.cursorValid = false
	r.lastValid = false
}

// SetCapabilities changes the target capabilities and forces a full redraw
func (r *Rasterizer) SetCapabilities(caps blitter.Capabilities) {
	r.caps = caps
	r.warnedDowngrade = false
	r.Invalidate()
}

func (r *Rasterizer) resize(rows, cols int) {
	size := rows * cols
	if cap(r.front) < size {
		r.front = make([]cell.Cell, size)
	} else {
		r.front = r.front[:size]
	}
	r.rows, r.cols = rows, cols
	r.Invalidate()
}

// Rasterize writes f to the output
// Output failures are returned wrapped in ErrOutput and are not retried; the
// rasterizer then forgets the last frame so the next call redraws everything.
func (r *Rasterizer) Rasterize(f *Frame) (Stats, error) {
	if len(f.Cells) < f.Rows*f.Cols {
		return Stats{}, fmt.Errorf("rasterize: frame %dx%d holds %d cells", f.Rows, f.Cols, len(f.Cells))
	}
	if f.Rows != r.rows || f.Cols != r.cols {
		r.resize(f.Rows, f.Cols)
	}
	force := !r.frontValid || r.opts.NoDiff
	r.sink.n = 0

	var stats Stats
	for row := 0; row < f.Rows; row++ {
		base := row * f.Cols
		for col := 0; col < f.Cols; col++ {
			i := base + col
			c := f.Cells[i]

			// Drawn together with its primary
			if c.IsBackstop() && col > 0 && f.Cells[i-1].IsWide() {
				r.front[i] = c
				continue
			}
			if !force && !r.dirty(f, i, col) {
				continue
			}
			if r.emit(row, col, c) {
				stats.Downgraded++
			}
			r.front[i] = c
			stats.Cells++
		}
	}

	if stats.Cells > 0 {
		r.w.Write(csiSGR0)
		r.lastValid = false
	}

	if err := r.w.Flush(); err != nil {
		stats.Bytes = r.sink.n
		r.w.Reset(r.sink)
		r.Invalidate()
		return stats, fmt.Errorf("%w: %w", ErrOutput, err)
	}
	r.frontValid = true
	stats.Bytes = r.sink.n

	if stats.Downgraded > 0 && !r.warnedDowngrade {
		r.warnedDowngrade = true
		log.Printf("Rasterizer degraded %d blitter glyphs for capabilities %+v", stats.Downgraded, r.caps)
	}
	return stats, nil
}

// dirty reports whether the cell at i, or the backstop of a wide cell at i, changed
func (r *Rasterizer) dirty(f *Frame, i, col int) bool {
	if f.Cells[i] != r.front[i] {
		return true
	}
	return f.Cells[i].IsWide() && col+1 < f.Cols && f.Cells[i+1] != r.front[i+1]
}

// emit writes one cell, returning true if its glyph had to be degraded
func (r *Rasterizer) emit(row, col int, c cell.Cell) bool {
	r.moveTo(row, col)

	glyph := c.Glyph()
	if glyph == 0 {
		glyph = ' '
	}
	fg, bg := c.Fg(), c.Bg()

	degraded := false
	if g, inverted := blitter.Downgrade(glyph, r.caps); g != glyph {
		glyph = g
		degraded = true
		if inverted {
			bg = fg
		}
	}

	r.writeStyleCoalesced(fg, bg, c.Styles())
	if glyph < 0x80 {
		r.w.WriteByte(byte(glyph))
	} else {
		r.w.WriteRune(glyph)
	}

	r.cursorCol += max(1, c.Width())
	// A cluster stored wide whose lead glyph is narrow may advance the terminal
	// either way, the next write positions absolutely
	if c.IsWide() && cell.GlyphWidth(glyph) < 2 {
		r.cursorValid = false
	}
	return degraded
}

// moveTo positions the cursor, using forward movement on the same row
func (r *Rasterizer) moveTo(row, col int) {
	if r.cursorValid && row == r.cursorRow && col == r.cursorCol {
		return
	}
	if r.cursorValid && row == r.cursorRow && col > r.cursorCol {
		writeCursorForward(r.w, col-r.cursorCol)
	} else {
		writeCursorPos(r.w, row, col)
	}
	r.cursorRow, r.cursorCol = row, col
	r.cursorValid = true
}

// SGR parameters per style bit, in emission order
var styleSGR = []struct {
	s     cell.Style
	param string
}{
	{cell.StyleBold, "1"},
	{cell.StyleDim, "2"},
	{cell.StyleItalic, "3"},
	{cell.StyleUnderline, "4"},
	{cell.StyleUndercurl, "4:3"},
	{cell.StyleBlink, "5"},
	{cell.StyleReverse, "7"},
	{cell.StyleStruck, "9"},
}

// writeStyleCoalesced emits a single combined SGR sequence when style changes
func (r *Rasterizer) writeStyleCoalesced(fg, bg cell.Channel, style cell.Style) {
	fgChanged := !r.lastValid || fg != r.lastFg
	bgChanged := !r.lastValid || bg != r.lastBg
	styleChanged := !r.lastValid || style != r.lastStyle

	if !fgChanged && !bgChanged && !styleChanged {
		return
	}

	w := r.w
	if styleChanged {
		// Attributes can only be cleared by a reset
		w.Write(csi)
		w.WriteByte('0')
		for _, s := range styleSGR {
			if style.Has(s.s) {
				w.WriteByte(';')
				w.WriteString(s.param)
			}
		}
		w.WriteByte(';')
		r.writeColorParams(fg, false)
		w.WriteByte(';')
		r.writeColorParams(bg, true)
		w.WriteByte('m')
	} else if fgChanged && bgChanged {
		w.Write(csi)
		r.writeColorParams(fg, false)
		w.WriteByte(';')
		r.writeColorParams(bg, true)
		w.WriteByte('m')
	} else if fgChanged {
		r.writeColorFull(fg, false)
	} else {
		r.writeColorFull(bg, true)
	}

	r.lastFg = fg
	r.lastBg = bg
	r.lastStyle = style
	r.lastValid = true
}

// writeColorParams writes color parameters (no CSI prefix, no 'm' suffix)
func (r *Rasterizer) writeColorParams(ch cell.Channel, background bool) {
	w := r.w
	base := 30
	if background {
		base = 40
	}

	switch {
	case ch.IsDefault():
		writeInt(w, base+9)
	case ch.IsPalette():
		writeInt(w, base+8)
		w.WriteString(";5;")
		writeInt(w, int(ch.Index()))
	case r.caps.Truecolor:
		cr, cg, cb := ch.RGB()
		writeInt(w, base+8)
		w.WriteString(";2;")
		writeInt(w, int(cr))
		w.WriteByte(';')
		writeInt(w, int(cg))
		w.WriteByte(';')
		writeInt(w, int(cb))
	default:
		writeInt(w, base+8)
		w.WriteString(";5;")
		writeInt(w, int(cell.Nearest256(ch.RGB())))
	}
}

// writeColorFull writes a complete color sequence
func (r *Rasterizer) writeColorFull(ch cell.Channel, background bool) {
	w := r.w
	switch {
	case ch.IsDefault():
		if background {
			w.Write(csiBgDflt)
		} else {
			w.Write(csiFgDflt)
		}
	case ch.IsPalette():
		if background {
			w.Write(csiBg256)
		} else {
			w.Write(csiFg256)
		}
		writeInt(w, int(ch.Index()))
		w.WriteByte('m')
	case r.caps.Truecolor:
		if background {
			w.Write(csiBgRGB)
		} else {
			w.Write(csiFgRGB)
		}
		cr, cg, cb := ch.RGB()
		writeInt(w, int(cr))
		w.WriteByte(';')
		writeInt(w, int(cg))
		w.WriteByte(';')
		writeInt(w, int(cb))
		w.WriteByte('m')
	default:
		if background {
			w.Write(csiBg256)
		} else {
			w.Write(csiFg256)
		}
		writeInt(w, int(cell.Nearest256(ch.RGB())))
		w.WriteByte('m')
	}
}
