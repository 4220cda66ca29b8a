package plane

import (
	"errors"
	"testing"

	"github.com/lixenwraith/stackterm/cell"
)

func newPile(t *testing.T) *Pile {
	t.Helper()
	pl, err := NewPile(Options{Rows: 40, Cols: 80, Name: "test"})
	if err != nil {
		t.Fatalf("NewPile failed: %v", err)
	}
	return pl
}

func mustPlane(t *testing.T, pl *Pile, opts Options) *Plane {
	t.Helper()
	p, err := pl.NewPlane(opts)
	if err != nil {
		t.Fatalf("NewPlane(%+v) failed: %v", opts, err)
	}
	return p
}

func TestInvalidGeometry(t *testing.T) {
	if _, err := NewPile(Options{Rows: 0, Cols: 10}); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("NewPile 0 rows: got %v", err)
	}

	pl := newPile(t)
	tests := []struct {
		name       string
		rows, cols int
	}{
		{"Zero rows", 0, 5},
		{"Zero cols", 5, 0},
		{"Negative", -1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pl.NewPlane(Options{Rows: tt.rows, Cols: tt.cols})
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("Expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
	if pl.Planes() != 0 {
		t.Errorf("Failed creations left %d planes", pl.Planes())
	}
}

func TestAbsolutePosition(t *testing.T) {
	pl := newPile(t)
	p1 := mustPlane(t, pl, Options{Rows: 10, Cols: 10, Row: 1, Col: 1})
	p2, err := p1.NewChild(5, 5, 2, 2)
	if err != nil {
		t.Fatalf("NewChild failed: %v", err)
	}

	if pos, _ := p1.Position(); pos != (Offset{1, 1}) {
		t.Errorf("p1 relative = %s", pos)
	}
	if pos, _ := p2.Position(); pos != (Offset{2, 2}) {
		t.Errorf("p2 relative = %s", pos)
	}
	if abs, _ := p1.AbsPosition(); abs != (Offset{1, 1}) {
		t.Errorf("p1 absolute = %s", abs)
	}
	if abs, _ := p2.AbsPosition(); abs != (Offset{3, 3}) {
		t.Errorf("p2 absolute = %s, want (3,3)", abs)
	}
}

func TestAbsoluteIsSumOfRelative(t *testing.T) {
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 2, Cols: 2, Row: -3, Col: 7})
	chain := []*Plane{p}
	offsets := []Offset{{4, -2}, {0, 0}, {11, 5}, {-6, 1}}
	for _, o := range offsets {
		c, err := p.NewChild(2, 2, o.Row, o.Col)
		if err != nil {
			t.Fatalf("NewChild failed: %v", err)
		}
		chain = append(chain, c)
		p = c
	}

	// Moving an ancestor must be reflected without caching
	if err := chain[1].MoveRel(3, -4); err != nil {
		t.Fatal(err)
	}

	for i, leaf := range chain {
		var sum Offset
		for _, anc := range chain[:i+1] {
			rel, _ := anc.Position()
			sum = sum.Add(rel)
		}
		abs, err := leaf.AbsPosition()
		if err != nil {
			t.Fatal(err)
		}
		if abs != sum {
			t.Errorf("Depth %d: abs %s != sum %s", i, abs, sum)
		}
	}
}

func TestTranslateAbs(t *testing.T) {
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 5, Cols: 5, Row: 10, Col: 10})

	tests := []struct {
		row, col int
		want     Offset
		wantOK   bool
	}{
		{10, 10, Offset{0, 0}, true},
		{14, 14, Offset{4, 4}, true},
		{2, 2, Offset{-8, -8}, false},
		{20, 20, Offset{10, 10}, false},
		{15, 15, Offset{5, 5}, false},
		{10, 15, Offset{0, 5}, false},
	}
	for _, tt := range tests {
		got, ok, err := p.TranslateAbs(tt.row, tt.col)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("TranslateAbs(%d,%d) = %s,%v want %s,%v", tt.row, tt.col, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestTranslateIsInverse(t *testing.T) {
	pl := newPile(t)
	root := mustPlane(t, pl, Options{Rows: 20, Cols: 20, Row: 3, Col: 4})
	p, err := root.NewChild(6, 9, 5, -2)
	if err != nil {
		t.Fatal(err)
	}
	abs, _ := p.AbsPosition()

	got, ok, _ := p.TranslateAbs(abs.Row, abs.Col)
	if got != (Offset{}) || !ok {
		t.Errorf("Translate origin = %s,%v", got, ok)
	}
	got, ok, _ = p.TranslateAbs(abs.Row+6, abs.Col+9)
	if got != (Offset{6, 9}) || ok {
		t.Errorf("Translate far corner = %s,%v", got, ok)
	}
}

func TestWideGlyphAtEdge(t *testing.T) {
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 2, Cols: 4})
	wide := cell.New('世')

	if err := p.WriteCell(0, 3, wide); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Wide glyph in last column: got %v, want ErrOutOfBounds", err)
	}
	if c, _ := p.CellAt(0, 3); !c.IsEmpty() {
		t.Error("Failed write must not modify the plane")
	}

	if err := p.WriteCell(0, 2, wide); err != nil {
		t.Fatalf("Wide glyph one column earlier failed: %v", err)
	}
	primary, _ := p.CellAt(0, 2)
	backstop, _ := p.CellAt(0, 3)
	if primary.Glyph() != '世' || primary.Width() != 2 {
		t.Errorf("Primary = %q width %d", primary.Glyph(), primary.Width())
	}
	if !backstop.IsBackstop() || backstop.Glyph() != 0 {
		t.Error("Expected backstop sentinel in trailing column")
	}
}

func TestWriteBounds(t *testing.T) {
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 3, Cols: 3})
	for _, pos := range []Offset{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		if err := p.WriteCell(pos.Row, pos.Col, cell.New('x')); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("WriteCell%s: got %v", pos, err)
		}
	}
	if err := p.WriteCell(0, 0, cell.Backstop(cell.New('世'))); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("Direct backstop write: got %v", err)
	}
}

func TestOverwriteWideHalves(t *testing.T) {
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 1, Cols: 6})
	wide := cell.New('世')

	// Overwrite the backstop: primary goes too
	_ = p.WriteCell(0, 0, wide)
	if err := p.WriteCell(0, 1, cell.New('a')); err != nil {
		t.Fatal(err)
	}
	if c, _ := p.CellAt(0, 0); !c.IsEmpty() {
		t.Errorf("Primary survived backstop overwrite: %q", c.Glyph())
	}

	// Overwrite the primary: backstop goes too
	_ = p.WriteCell(0, 2, wide)
	_ = p.WriteCell(0, 2, cell.New('b'))
	if c, _ := p.CellAt(0, 3); c.IsBackstop() {
		t.Error("Orphaned backstop after primary overwrite")
	}

	// Wide over the primary of the next wide glyph
	_ = p.WriteCell(0, 4, wide)
	_ = p.WriteCell(0, 3, wide)
	if c, _ := p.CellAt(0, 5); c.IsBackstop() {
		t.Error("Orphaned backstop at column 5")
	}
	if c, _ := p.CellAt(0, 4); !c.IsBackstop() {
		t.Error("Expected new backstop at column 4")
	}
}

func TestBaseCell(t *testing.T) {
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 2, Cols: 2})
	_ = p.WriteCell(0, 0, cell.New('w'))

	cp := cell.NewChannels(cell.RGB(1, 2, 3), cell.DefaultChannel)
	if err := p.SetBase('.', cell.StyleDim, cp); err != nil {
		t.Fatal(err)
	}
	if c, _ := p.CellAt(0, 0); c.Glyph() != 'w' {
		t.Error("SetBase overwrote a written cell")
	}
	c, _ := p.CellAt(1, 1)
	if c.Glyph() != '.' || c.Styles() != cell.StyleDim || c.Channels() != cp {
		t.Errorf("Unwritten cell = %q %s %s", c.Glyph(), c.Styles(), c.Channels())
	}

	if err := p.SetBase('世', 0, 0); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("Wide base: got %v", err)
	}
}

func TestPutStr(t *testing.T) {
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 2, Cols: 5})
	_ = p.SetStyles(cell.StyleBold)

	n, err := p.PutStr("ab世")
	if err != nil {
		t.Fatalf("PutStr failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Columns written = %d, want 4", n)
	}
	cur, _ := p.Cursor()
	if cur != (Offset{0, 4}) {
		t.Errorf("Cursor = %s, want (0,4)", cur)
	}
	if c, _ := p.CellAt(0, 0); !c.Styles().Has(cell.StyleBold) {
		t.Error("PutStr ignored cursor style")
	}

	// Decomposed e + combining acute normalises to one cell
	_ = p.SetCursor(1, 0)
	n, err = p.PutStr("e\u0301x")
	if err != nil || n != 2 {
		t.Fatalf("PutStr combining = %d, %v", n, err)
	}
	if c, _ := p.CellAt(1, 0); c.Glyph() != 'é' {
		t.Errorf("Cell (1,0) = %q, want é", c.Glyph())
	}

	// Stops at the right edge, earlier cells remain
	_ = p.SetCursor(1, 2)
	n, err = p.PutStr("xyz!")
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Expected ErrOutOfBounds, got %v", err)
	}
	if n != 3 {
		t.Errorf("Columns written before edge = %d, want 3", n)
	}
	if c, _ := p.CellAt(1, 4); c.Glyph() != 'z' {
		t.Errorf("Last cell = %q, want z", c.Glyph())
	}
}

func TestPutStrClusterWidth(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		lead  rune
		width int
	}{
		{"VS16 emoji", "❤\uFE0F", '❤', 2},
		{"Flag pair", "🇺🇸", '🇺', 2},
		{"Skin tone modifier", "👍🏽", '👍', 2},
		{"Text presentation", "❤", '❤', 1},
		{"Combining mark", "a\u0308", 'ä', 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl := newPile(t)
			p := mustPlane(t, pl, Options{Rows: 1, Cols: 4})

			n, err := p.PutStr(tt.text)
			if err != nil {
				t.Fatalf("PutStr failed: %v", err)
			}
			if n != tt.width {
				t.Errorf("Expected %d columns, got %d", tt.width, n)
			}
			if cur, _ := p.Cursor(); cur != (Offset{0, tt.width}) {
				t.Errorf("Expected cursor (0,%d), got %s", tt.width, cur)
			}
			c, _ := p.CellAt(0, 0)
			if c.Glyph() != tt.lead || c.Width() != tt.width {
				t.Errorf("Expected %q width %d, got %q width %d", tt.lead, tt.width, c.Glyph(), c.Width())
			}
			if bs, _ := p.CellAt(0, 1); bs.IsBackstop() != (tt.width == 2) {
				t.Errorf("Expected backstop=%v at (0,1)", tt.width == 2)
			}
		})
	}

	// A wide cluster at the last column fails like a wide glyph
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 1, Cols: 2})
	_ = p.SetCursor(0, 1)
	if _, err := p.PutStr("🇺🇸"); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
}

func TestCursorBounds(t *testing.T) {
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 2, Cols: 2})
	if err := p.SetCursor(2, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetCursor outside: got %v", err)
	}
	_ = p.SetCursor(0, 1)
	if _, err := p.Putc('世'); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Putc wide at edge: got %v", err)
	}
	if w, err := p.Putc('x'); err != nil || w != 1 {
		t.Errorf("Putc = %d, %v", w, err)
	}
	if _, err := p.Putc('y'); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Putc past edge: got %v", err)
	}
}

func TestResizeAndErase(t *testing.T) {
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 3, Cols: 4})
	_ = p.WriteCell(0, 0, cell.New('a'))
	_ = p.WriteCell(2, 3, cell.New('z'))
	_ = p.WriteCell(1, 1, cell.New('世'))

	if err := p.Resize(2, 2); err != nil {
		t.Fatal(err)
	}
	if rows, cols, _ := p.Size(); rows != 2 || cols != 2 {
		t.Errorf("Size = %dx%d", rows, cols)
	}
	if c, _ := p.CellAt(0, 0); c.Glyph() != 'a' {
		t.Error("Resize lost overlapping content")
	}
	if c, _ := p.CellAt(1, 1); !c.IsEmpty() {
		t.Error("Wide glyph with clipped backstop must be cleared")
	}
	if err := p.Resize(0, 2); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("Resize 0: got %v", err)
	}

	_ = p.SetCursor(1, 1)
	if err := p.Erase(); err != nil {
		t.Fatal(err)
	}
	if c, _ := p.CellAt(0, 0); !c.IsEmpty() {
		t.Error("Erase left content")
	}
	if cur, _ := p.Cursor(); cur != (Offset{}) {
		t.Errorf("Cursor after erase = %s", cur)
	}
}

func TestDropAll(t *testing.T) {
	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 2, Cols: 2})
	c, _ := p.NewChild(1, 1, 0, 0)

	pl.DropAll()
	if pl.Planes() != 0 {
		t.Errorf("Planes after DropAll = %d", pl.Planes())
	}

	for _, h := range []*Plane{p, c} {
		if _, err := h.Position(); !errors.Is(err, ErrUseAfterDrop) {
			t.Errorf("Position after drop: got %v", err)
		}
		if err := h.WriteCell(0, 0, cell.New('x')); !errors.Is(err, ErrUseAfterDrop) {
			t.Errorf("WriteCell after drop: got %v", err)
		}
		if _, err := h.NewChild(1, 1, 0, 0); !errors.Is(err, ErrUseAfterDrop) {
			t.Errorf("NewChild after drop: got %v", err)
		}
	}

	// The pile stays usable and old handles stay dead
	if _, err := pl.NewPlane(Options{Rows: 1, Cols: 1}); err != nil {
		t.Fatal(err)
	}
	if p.Valid() {
		t.Error("Old handle revived by slot reuse")
	}
}

func TestDestroyKeepsChildren(t *testing.T) {
	pl := newPile(t)
	a := mustPlane(t, pl, Options{Rows: 10, Cols: 10, Name: "a"})
	b := mustPlane(t, pl, Options{Rows: 10, Cols: 10, Row: 2, Col: 3, Name: "b"})
	c := mustPlane(t, pl, Options{Rows: 10, Cols: 10, Name: "c"})
	b1, _ := b.NewChild(2, 2, 1, 1)
	b2, _ := b.NewChild(2, 2, 4, 4)

	if err := b.Destroy(); err != nil {
		t.Fatal(err)
	}
	if b.Valid() {
		t.Error("Destroyed handle still valid")
	}
	if _, err := b.Position(); !errors.Is(err, ErrUseAfterDrop) {
		t.Errorf("Destroyed plane: got %v", err)
	}

	if abs, _ := b1.AbsPosition(); abs != (Offset{3, 4}) {
		t.Errorf("b1 absolute after destroy = %s, want (3,4)", abs)
	}
	if parent, _ := b2.Parent(); parent != nil {
		t.Error("Orphans must become roots")
	}

	want := []*Plane{a, b1, b2, c}
	roots := pl.Roots()
	if len(roots) != len(want) {
		t.Fatalf("Roots = %d, want %d", len(roots), len(want))
	}
	for i := range want {
		if !roots[i].Is(want[i]) {
			t.Errorf("Root %d = %s, want %s", i, roots[i], want[i])
		}
	}
	if pl.Planes() != 4 {
		t.Errorf("Planes = %d", pl.Planes())
	}
}

func TestReparent(t *testing.T) {
	pl := newPile(t)
	a := mustPlane(t, pl, Options{Rows: 5, Cols: 5, Row: 1, Col: 1})
	b := mustPlane(t, pl, Options{Rows: 5, Cols: 5, Row: 10, Col: 10})
	child, _ := a.NewChild(1, 1, 2, 2)
	grand, _ := child.NewChild(1, 1, 1, 1)

	if err := child.Reparent(b); err != nil {
		t.Fatal(err)
	}
	if abs, _ := child.AbsPosition(); abs != (Offset{12, 12}) {
		t.Errorf("Reparented absolute = %s", abs)
	}
	if kids, _ := a.Children(); len(kids) != 0 {
		t.Errorf("Old parent kept %d children", len(kids))
	}

	if err := b.Reparent(grand); !errors.Is(err, ErrCycle) {
		t.Errorf("Cycle: got %v", err)
	}
	if err := b.Reparent(b); !errors.Is(err, ErrCycle) {
		t.Errorf("Self parent: got %v", err)
	}

	other := newPile(t)
	foreign := mustPlane(t, other, Options{Rows: 1, Cols: 1})
	if err := a.Reparent(foreign); !errors.Is(err, ErrForeignPlane) {
		t.Errorf("Foreign parent: got %v", err)
	}
	if _, err := pl.NewPlane(Options{Parent: foreign, Rows: 1, Cols: 1}); !errors.Is(err, ErrForeignPlane) {
		t.Errorf("Foreign NewPlane: got %v", err)
	}

	if err := child.Reparent(nil); err != nil {
		t.Fatal(err)
	}
	if abs, _ := child.AbsPosition(); abs != (Offset{2, 2}) {
		t.Errorf("Root absolute = %s", abs)
	}
}

func TestZOrder(t *testing.T) {
	pl := newPile(t)
	a := mustPlane(t, pl, Options{Rows: 1, Cols: 1, Name: "a"})
	b := mustPlane(t, pl, Options{Rows: 1, Cols: 1, Name: "b"})
	c := mustPlane(t, pl, Options{Rows: 1, Cols: 1, Name: "c"})

	order := func() string {
		s := ""
		for _, r := range pl.Roots() {
			s += r.Name()
		}
		return s
	}

	if got := order(); got != "abc" {
		t.Fatalf("Insertion order = %s", got)
	}

	steps := []struct {
		name string
		op   func() error
		want string
	}{
		{"a top", a.MoveTop, "bca"},
		{"a bottom", a.MoveBottom, "abc"},
		{"a above b", func() error { return a.MoveAbove(b) }, "bac"},
		{"c below b", func() error { return c.MoveBelow(b) }, "cba"},
		{"move does not restack", func() error { return b.MoveTo(9, 9) }, "cba"},
	}
	for _, s := range steps {
		if err := s.op(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		if got := order(); got != s.want {
			t.Errorf("%s: order %s, want %s", s.name, got, s.want)
		}
	}

	child, _ := a.NewChild(1, 1, 0, 0)
	if err := child.MoveAbove(b); !errors.Is(err, ErrNotSibling) {
		t.Errorf("Non-sibling restack: got %v", err)
	}
}

func TestWalkOrder(t *testing.T) {
	pl := newPile(t)
	a := mustPlane(t, pl, Options{Rows: 1, Cols: 1, Row: 1, Name: "a"})
	_ = mustPlane(t, pl, Options{Rows: 1, Cols: 1, Name: "b"})
	_, _ = a.NewChild(1, 1, 1, 0)
	_, _ = a.NewChild(1, 1, 0, 5)

	var names []string
	var offsets []Offset
	err := pl.Walk(func(p *Plane, abs Offset) error {
		name := p.Name()
		if name == "" {
			name = "-"
		}
		names = append(names, name)
		offsets = append(offsets, abs)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	wantNames := []string{"a", "-", "-", "b"}
	wantOffsets := []Offset{{1, 0}, {2, 0}, {1, 5}, {0, 0}}
	for i := range wantNames {
		if names[i] != wantNames[i] || offsets[i] != wantOffsets[i] {
			t.Errorf("Walk %d = %s %s, want %s %s", i, names[i], offsets[i], wantNames[i], wantOffsets[i])
		}
	}

	stop := errors.New("stop")
	visited := 0
	err = pl.Walk(func(*Plane, Offset) error {
		visited++
		return stop
	})
	if !errors.Is(err, stop) || visited != 1 {
		t.Errorf("Walk stop: %v after %d", err, visited)
	}
}

func TestWalkRestructure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Plane) error
		want   []string
	}{
		{"Raise first root", (*Plane).MoveTop, []string{"a", "b", "c"}},
		{"Lower last root", (*Plane).MoveBottom, []string{"a", "b", "c"}},
		{"Destroy visited root", (*Plane).Destroy, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl := newPile(t)
			for _, name := range []string{"a", "b", "c"} {
				mustPlane(t, pl, Options{Rows: 1, Cols: 1, Name: name})
			}

			var names []string
			err := pl.Walk(func(p *Plane, _ Offset) error {
				names = append(names, p.Name())
				return tt.mutate(p)
			})
			if err != nil {
				t.Fatalf("Walk failed: %v", err)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, names)
			}
			for i := range tt.want {
				if names[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, names)
					break
				}
			}
		})
	}
}

func TestGuard(t *testing.T) {
	pl := newPile(t)
	g := NewGuard(pl)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			_ = g.Do(func(pl *Pile) error {
				_, err := pl.NewPlane(Options{Rows: 1, Cols: 1, Row: i})
				return err
			})
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	_ = g.Do(func(pl *Pile) error {
		if pl.Planes() != 8 {
			t.Errorf("Planes = %d, want 8", pl.Planes())
		}
		return nil
	})
}
