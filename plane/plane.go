package plane

import (
	"fmt"

	"github.com/lixenwraith/stackterm/cell"
)

// Plane is a handle to a rectangular cell grid inside a pile
type Plane struct {
	pile  *Pile
	slot  int
	gen   uint32
	epoch uint32
}

// node resolves the handle, failing once the plane was destroyed or dropped
func (p *Plane) node() (*node, error) {
	if p == nil || p.pile == nil {
		return nil, ErrUseAfterDrop
	}
	pl := p.pile
	if p.epoch != pl.epoch || p.slot >= len(pl.nodes) || pl.nodes[p.slot] == nil || pl.gens[p.slot] != p.gen {
		return nil, ErrUseAfterDrop
	}
	return pl.nodes[p.slot], nil
}

// Valid returns true while the handle refers to a live plane
func (p *Plane) Valid() bool {
	_, err := p.node()
	return err == nil
}

// Is returns true if both handles refer to the same live plane
func (p *Plane) Is(other *Plane) bool {
	if !p.Valid() || !other.Valid() {
		return false
	}
	return p.pile == other.pile && p.slot == other.slot
}

// Pile returns the owning pile
func (p *Plane) Pile() *Pile {
	return p.pile
}

// Name returns the plane's name, empty for a dropped handle
func (p *Plane) Name() string {
	n, err := p.node()
	if err != nil {
		return ""
	}
	return n.name
}

func (p *Plane) String() string {
	n, err := p.node()
	if err != nil {
		return "plane(dropped)"
	}
	return fmt.Sprintf("plane(%q %dx%d @%s)", n.name, n.rows, n.cols, n.origin)
}

// NewChild creates a plane whose parent is p, above p's existing children
func (p *Plane) NewChild(rows, cols, row, col int) (*Plane, error) {
	return p.pile.NewPlane(Options{Parent: p, Rows: rows, Cols: cols, Row: row, Col: col})
}

// Size returns the plane's dimensions
func (p *Plane) Size() (rows, cols int, err error) {
	n, err := p.node()
	if err != nil {
		return 0, 0, err
	}
	return n.rows, n.cols, nil
}

// Position returns the origin relative to the parent, or the pile for root planes
func (p *Plane) Position() (Offset, error) {
	n, err := p.node()
	if err != nil {
		return Offset{}, err
	}
	return n.origin, nil
}

// AbsPosition returns the origin in pile coordinates
// Recomputed on every call from the ancestor chain
func (p *Plane) AbsPosition() (Offset, error) {
	if _, err := p.node(); err != nil {
		return Offset{}, err
	}
	return p.pile.absolute(p.slot), nil
}

// MoveRel shifts the origin by (dr, dc), planes may leave their parent's extent
func (p *Plane) MoveRel(dr, dc int) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	n.origin = n.origin.Add(Offset{Row: dr, Col: dc})
	return nil
}

// MoveTo sets the origin relative to the parent
func (p *Plane) MoveTo(row, col int) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	n.origin = Offset{Row: row, Col: col}
	return nil
}

// TranslateAbs converts a pile coordinate to plane-local coordinates
// The local offset is returned even when outside [0,rows)×[0,cols), ok reports containment
func (p *Plane) TranslateAbs(row, col int) (local Offset, ok bool, err error) {
	n, err := p.node()
	if err != nil {
		return Offset{}, false, err
	}
	local = Offset{Row: row, Col: col}.Sub(p.pile.absolute(p.slot))
	ok = local.Row >= 0 && local.Row < n.rows && local.Col >= 0 && local.Col < n.cols
	return local, ok, nil
}

// Parent returns the parent plane, nil for root planes
func (p *Plane) Parent() (*Plane, error) {
	n, err := p.node()
	if err != nil {
		return nil, err
	}
	if n.parent == noParent {
		return nil, nil
	}
	return p.pile.handle(n.parent), nil
}

// Children returns the direct children, bottom to top
func (p *Plane) Children() ([]*Plane, error) {
	n, err := p.node()
	if err != nil {
		return nil, err
	}
	out := make([]*Plane, len(n.children))
	for i, slot := range n.children {
		out[i] = p.pile.handle(slot)
	}
	return out, nil
}

// Reparent moves p under newParent keeping its relative origin, nil makes it a root
// p is placed above its new siblings
func (p *Plane) Reparent(newParent *Plane) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	target := noParent
	if newParent != nil {
		if newParent.pile != p.pile {
			return fmt.Errorf("reparent: %w", ErrForeignPlane)
		}
		if _, err := newParent.node(); err != nil {
			return fmt.Errorf("reparent: new parent: %w", err)
		}
		for s := newParent.slot; s != noParent; s = p.pile.nodes[s].parent {
			if s == p.slot {
				return fmt.Errorf("reparent: %w", ErrCycle)
			}
		}
		target = newParent.slot
	}

	removeSlot(p.pile.siblings(n.parent), p.slot)
	n.parent = target
	list := p.pile.siblings(target)
	*list = append(*list, p.slot)
	return nil
}

// Destroy removes p from its pile
// Children survive: they take p's place in its sibling list, in order, with
// their origins adjusted so their absolute positions do not change
func (p *Plane) Destroy() error {
	n, err := p.node()
	if err != nil {
		return err
	}
	pl := p.pile

	for _, c := range n.children {
		child := pl.nodes[c]
		child.parent = n.parent
		child.origin = child.origin.Add(n.origin)
	}

	list := pl.siblings(n.parent)
	idx := indexOf(*list, p.slot)
	replaced := make([]int, 0, len(*list)-1+len(n.children))
	replaced = append(replaced, (*list)[:idx]...)
	replaced = append(replaced, n.children...)
	replaced = append(replaced, (*list)[idx+1:]...)
	*list = replaced

	pl.release(p.slot)
	return nil
}

func indexOf(list []int, slot int) int {
	for i, s := range list {
		if s == slot {
			return i
		}
	}
	return -1
}

func removeSlot(list *[]int, slot int) {
	if i := indexOf(*list, slot); i >= 0 {
		*list = append((*list)[:i], (*list)[i+1:]...)
	}
}

// Resize changes the plane's dimensions keeping the overlapping top-left content
// A wide glyph whose backstop no longer fits is cleared
func (p *Plane) Resize(rows, cols int) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	if rows < 1 || cols < 1 {
		return fmt.Errorf("resize plane %dx%d: %w", rows, cols, ErrInvalidGeometry)
	}

	cells := make([]cell.Cell, rows*cols)
	written := make([]bool, rows*cols)
	for r := 0; r < min(rows, n.rows); r++ {
		for c := 0; c < min(cols, n.cols); c++ {
			src := r*n.cols + c
			dst := r*cols + c
			cells[dst] = n.cells[src]
			written[dst] = n.written[src]
		}
		if last := r*cols + cols - 1; cols < n.cols && written[last] && cells[last].IsWide() {
			cells[last] = cell.Cell{}
			written[last] = false
		}
	}

	n.rows, n.cols = rows, cols
	n.cells, n.written = cells, written
	n.cursor.Row = min(n.cursor.Row, rows-1)
	n.cursor.Col = min(n.cursor.Col, cols)
	return nil
}
