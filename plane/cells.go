package plane

import (
	"fmt"
	"unicode/utf8"

	"github.com/lixenwraith/stackterm/cell"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// SetBase sets the cell used for positions never written
// Already written cells keep their content
func (p *Plane) SetBase(glyph rune, style cell.Style, channels cell.Channels) error {
	return p.SetBaseCell(cell.Load(glyph, style, channels))
}

// SetBaseCell sets the base cell from a complete cell, wide glyphs are not allowed
func (p *Plane) SetBaseCell(c cell.Cell) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	if c.IsBackstop() || c.Width() > 1 {
		return fmt.Errorf("set base: wide glyph %q: %w", c.Glyph(), ErrInvalidCell)
	}
	n.base = c
	return nil
}

// Base returns the base cell
func (p *Plane) Base() (cell.Cell, error) {
	n, err := p.node()
	if err != nil {
		return cell.Cell{}, err
	}
	return n.base, nil
}

// WriteCell stores c at (row, col)
// A width-2 glyph also claims (row, col+1) as its backstop and fails with
// ErrOutOfBounds when that column is outside the plane. Overwriting either half
// of an existing wide glyph clears the other half.
func (p *Plane) WriteCell(row, col int, c cell.Cell) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	return n.write(row, col, c)
}

func (n *node) inBounds(row, col int) bool {
	return row >= 0 && row < n.rows && col >= 0 && col < n.cols
}

func (n *node) write(row, col int, c cell.Cell) error {
	if !n.inBounds(row, col) {
		return fmt.Errorf("write cell %d,%d in %dx%d: %w", row, col, n.rows, n.cols, ErrOutOfBounds)
	}
	if c.IsBackstop() {
		return fmt.Errorf("write cell %d,%d: backstop is not addressable: %w", row, col, ErrInvalidCell)
	}
	wide := c.IsWide()
	if wide && col+1 >= n.cols {
		return fmt.Errorf("write cell %d,%d: backstop column %d in %dx%d: %w", row, col, col+1, n.rows, n.cols, ErrOutOfBounds)
	}

	n.clearPartner(row, col)
	if wide {
		n.clearPartner(row, col+1)
	}

	i := row*n.cols + col
	n.cells[i] = c
	n.written[i] = true
	if wide {
		n.cells[i+1] = cell.Backstop(c)
		n.written[i+1] = true
	}
	return nil
}

// clearPartner unsets the other half of a wide glyph touching (row, col)
func (n *node) clearPartner(row, col int) {
	i := row*n.cols + col
	if !n.written[i] {
		return
	}
	cur := n.cells[i]
	switch {
	case cur.IsBackstop() && col > 0:
		n.unset(i - 1)
	case cur.IsWide() && col+1 < n.cols:
		n.unset(i + 1)
	}
	n.unset(i)
}

func (n *node) unset(i int) {
	n.cells[i] = cell.Cell{}
	n.written[i] = false
}

// CellAt returns the effective cell at (row, col): the written cell or the base cell
func (p *Plane) CellAt(row, col int) (cell.Cell, error) {
	n, err := p.node()
	if err != nil {
		return cell.Cell{}, err
	}
	if !n.inBounds(row, col) {
		return cell.Cell{}, fmt.Errorf("cell at %d,%d in %dx%d: %w", row, col, n.rows, n.cols, ErrOutOfBounds)
	}
	i := row*n.cols + col
	if n.written[i] {
		return n.cells[i], nil
	}
	return n.base, nil
}

// Erase returns every cell to unwritten and homes the cursor
func (p *Plane) Erase() error {
	n, err := p.node()
	if err != nil {
		return err
	}
	clear(n.cells)
	clear(n.written)
	n.cursor = Offset{}
	return nil
}

// Cursor returns the write position
func (p *Plane) Cursor() (Offset, error) {
	n, err := p.node()
	if err != nil {
		return Offset{}, err
	}
	return n.cursor, nil
}

// SetCursor moves the write position, which must lie inside the plane
func (p *Plane) SetCursor(row, col int) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	if !n.inBounds(row, col) {
		return fmt.Errorf("set cursor %d,%d in %dx%d: %w", row, col, n.rows, n.cols, ErrOutOfBounds)
	}
	n.cursor = Offset{Row: row, Col: col}
	return nil
}

// SetStyles replaces the style applied by Putc and PutStr
func (p *Plane) SetStyles(s cell.Style) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	n.style = s & cell.StyleMask
	return nil
}

// AddStyles adds to the style applied by Putc and PutStr
func (p *Plane) AddStyles(s cell.Style) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	n.style = n.style.Add(s & cell.StyleMask)
	return nil
}

// RemoveStyles removes from the style applied by Putc and PutStr
func (p *Plane) RemoveStyles(s cell.Style) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	n.style = n.style.Remove(s)
	return nil
}

// Styles returns the style applied by Putc and PutStr
func (p *Plane) Styles() (cell.Style, error) {
	n, err := p.node()
	if err != nil {
		return cell.StyleNone, err
	}
	return n.style, nil
}

// SetChannels sets the colors applied by Putc and PutStr
func (p *Plane) SetChannels(cp cell.Channels) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	n.channels = cp
	return nil
}

// Putc writes glyph at the cursor with the current style and channels and
// advances the cursor by the glyph width. Returns the columns written.
func (p *Plane) Putc(glyph rune) (int, error) {
	n, err := p.node()
	if err != nil {
		return 0, err
	}
	return n.putc(cell.Load(glyph, n.style, n.channels))
}

func (n *node) putc(c cell.Cell) (int, error) {
	if err := n.write(n.cursor.Row, n.cursor.Col, c); err != nil {
		return 0, err
	}
	n.cursor.Col += c.Width()
	return c.Width(), nil
}

// PutStr writes s one grapheme cluster per cell starting at the cursor
// Text is NFC normalised first, a cluster keeps its leading codepoint and the
// cluster's display width, so "❤️" and flag pairs occupy two columns. Writing
// stops with ErrOutOfBounds at the right edge, cells written before remain.
// Returns the columns written.
func (p *Plane) PutStr(s string) (int, error) {
	n, err := p.node()
	if err != nil {
		return 0, err
	}

	total := 0
	state := -1
	rest := norm.NFC.String(s)
	for len(rest) > 0 {
		var cluster string
		var width int
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if width == 0 {
			continue
		}
		lead, _ := utf8.DecodeRuneInString(cluster)
		w, err := n.putc(cell.LoadWidth(lead, width, n.style, n.channels))
		if err != nil {
			return total, fmt.Errorf("put string at column %d: %w", n.cursor.Col, err)
		}
		total += w
	}
	return total, nil
}
