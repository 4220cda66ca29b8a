// Package plane implements the plane tree: rectangular cell grids positioned
// relative to their parent and grouped into independently rendered piles.
//
// Planes live in an arena owned by their pile. A *Plane is a handle carrying the
// slot index and generation of its node; destroyed planes and every plane of a
// pile after DropAll fail with ErrUseAfterDrop.
//
// Nothing in this package locks. A pile must be owned by one goroutine at a
// time, wrap it in a Guard when that cannot be arranged.
package plane

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/stackterm/cell"
)

var (
	ErrInvalidGeometry = errors.New("invalid geometry")
	ErrOutOfBounds     = errors.New("out of bounds")
	ErrUseAfterDrop    = errors.New("plane used after drop")
	ErrForeignPlane    = errors.New("plane belongs to another pile")
	ErrNotSibling      = errors.New("planes are not siblings")
	ErrCycle           = errors.New("reparent would create a cycle")
	ErrInvalidCell     = errors.New("invalid cell")
)

// Offset is a signed (row, col) coordinate
type Offset struct {
	Row int
	Col int
}

// Add returns the component-wise sum
func (o Offset) Add(other Offset) Offset {
	return Offset{Row: o.Row + other.Row, Col: o.Col + other.Col}
}

// Sub returns the component-wise difference
func (o Offset) Sub(other Offset) Offset {
	return Offset{Row: o.Row - other.Row, Col: o.Col - other.Col}
}

func (o Offset) String() string {
	return fmt.Sprintf("(%d,%d)", o.Row, o.Col)
}

// Options configures a pile or a plane
// Row and Col are relative to Parent, or to the pile origin for root planes
type Options struct {
	Parent *Plane
	Rows   int
	Cols   int
	Row    int
	Col    int
	Name   string
}

// noParent marks a root-level plane
const noParent = -1

// node is the arena record behind a Plane handle
type node struct {
	name     string
	rows     int
	cols     int
	origin   Offset
	parent   int
	children []int // bottom to top

	cells   []cell.Cell
	written []bool
	base    cell.Cell

	cursor   Offset
	style    cell.Style
	channels cell.Channels
}

// Pile is an independent forest of planes rendered as one target
type Pile struct {
	name string
	rows int
	cols int
	base cell.Cell

	epoch uint32 // bumped by DropAll, stales every handle
	nodes []*node
	gens  []uint32
	free  []int
	roots []int // bottom to top
	count int
}

// NewPile creates an empty pile with the given framebuffer size
// Parent, Row and Col are ignored
func NewPile(opts Options) (*Pile, error) {
	if opts.Rows < 1 || opts.Cols < 1 {
		return nil, fmt.Errorf("new pile %dx%d: %w", opts.Rows, opts.Cols, ErrInvalidGeometry)
	}
	return &Pile{
		name: opts.Name,
		rows: opts.Rows,
		cols: opts.Cols,
		base: cell.New(' '),
	}, nil
}

// Name returns the pile's name
func (pl *Pile) Name() string {
	return pl.name
}

// Size returns the framebuffer dimensions
func (pl *Pile) Size() (rows, cols int) {
	return pl.rows, pl.cols
}

// Resize changes the framebuffer dimensions, planes are untouched
func (pl *Pile) Resize(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("resize pile %dx%d: %w", rows, cols, ErrInvalidGeometry)
	}
	pl.rows, pl.cols = rows, cols
	return nil
}

// SetBase sets the cell shown where no plane covers the framebuffer
func (pl *Pile) SetBase(c cell.Cell) {
	pl.base = c
}

// Base returns the pile base cell
func (pl *Pile) Base() cell.Cell {
	return pl.base
}

// Planes returns the number of live planes
func (pl *Pile) Planes() int {
	return pl.count
}

// Roots returns the root-level planes, bottom to top
func (pl *Pile) Roots() []*Plane {
	out := make([]*Plane, len(pl.roots))
	for i, slot := range pl.roots {
		out[i] = pl.handle(slot)
	}
	return out
}

// Walk visits every plane in draw order: each root bottom to top, a parent
// before its children. abs is the plane's absolute origin.
// A non-nil error from fn stops the walk and is returned.
func (pl *Pile) Walk(fn func(p *Plane, abs Offset) error) error {
	// fn may reorder or destroy planes, iterate copies
	roots := append([]int(nil), pl.roots...)
	for _, slot := range roots {
		if err := pl.walk(slot, Offset{}, fn); err != nil {
			return err
		}
	}
	return nil
}

func (pl *Pile) walk(slot int, parentAbs Offset, fn func(*Plane, Offset) error) error {
	n := pl.nodes[slot]
	if n == nil {
		return nil
	}
	abs := parentAbs.Add(n.origin)
	if err := fn(pl.handle(slot), abs); err != nil {
		return err
	}
	children := append([]int(nil), n.children...)
	for _, c := range children {
		if err := pl.walk(c, abs, fn); err != nil {
			return err
		}
	}
	return nil
}

// DropAll destroys every plane at once
// All outstanding handles fail with ErrUseAfterDrop afterwards
func (pl *Pile) DropAll() {
	pl.epoch++
	pl.nodes = nil
	pl.gens = nil
	pl.free = nil
	pl.roots = nil
	pl.count = 0
}

// NewPlane creates a plane in this pile
// A nil Parent makes a root plane placed above the existing roots
func (pl *Pile) NewPlane(opts Options) (*Plane, error) {
	if opts.Rows < 1 || opts.Cols < 1 {
		return nil, fmt.Errorf("new plane %dx%d: %w", opts.Rows, opts.Cols, ErrInvalidGeometry)
	}

	parent := noParent
	if opts.Parent != nil {
		if opts.Parent.pile != pl {
			return nil, fmt.Errorf("new plane: %w", ErrForeignPlane)
		}
		if _, err := opts.Parent.node(); err != nil {
			return nil, fmt.Errorf("new plane: parent: %w", err)
		}
		parent = opts.Parent.slot
	}

	size := opts.Rows * opts.Cols
	n := &node{
		name:    opts.Name,
		rows:    opts.Rows,
		cols:    opts.Cols,
		origin:  Offset{Row: opts.Row, Col: opts.Col},
		parent:  parent,
		cells:   make([]cell.Cell, size),
		written: make([]bool, size),
	}

	slot := pl.alloc(n)
	if parent == noParent {
		pl.roots = append(pl.roots, slot)
	} else {
		p := pl.nodes[parent]
		p.children = append(p.children, slot)
	}
	return pl.handle(slot), nil
}

func (pl *Pile) alloc(n *node) int {
	pl.count++
	if k := len(pl.free); k > 0 {
		slot := pl.free[k-1]
		pl.free = pl.free[:k-1]
		pl.gens[slot]++
		pl.nodes[slot] = n
		return slot
	}
	pl.nodes = append(pl.nodes, n)
	pl.gens = append(pl.gens, 0)
	return len(pl.nodes) - 1
}

func (pl *Pile) release(slot int) {
	pl.nodes[slot] = nil
	pl.gens[slot]++
	pl.free = append(pl.free, slot)
	pl.count--
}

func (pl *Pile) handle(slot int) *Plane {
	return &Plane{pile: pl, slot: slot, gen: pl.gens[slot], epoch: pl.epoch}
}

// siblings returns the z-ordered list holding slot
func (pl *Pile) siblings(parent int) *[]int {
	if parent == noParent {
		return &pl.roots
	}
	return &pl.nodes[parent].children
}

// absolute sums origins from slot up to the pile root
func (pl *Pile) absolute(slot int) Offset {
	var abs Offset
	for slot != noParent {
		n := pl.nodes[slot]
		abs = abs.Add(n.origin)
		slot = n.parent
	}
	return abs
}
