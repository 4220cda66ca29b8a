package plane

import (
	"errors"
	"testing"
)

func TestAlignedCol(t *testing.T) {
	tests := []struct {
		name        string
		align       Align
		avail, cols int
		want        int
	}{
		{"Left", AlignLeft, 10, 4, 0},
		{"Center even", AlignCenter, 10, 4, 3},
		{"Center odd rounds down", AlignCenter, 10, 5, 2},
		{"Right", AlignRight, 10, 4, 6},
		{"Right exact fit", AlignRight, 4, 4, 0},
		{"Wider than avail", AlignRight, 3, 8, 0},
		{"Center wider than avail", AlignCenter, 3, 8, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AlignedCol(tt.align, tt.avail, tt.cols)
			if err != nil {
				t.Fatalf("AlignedCol failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}

	if _, err := AlignedCol(AlignUnaligned, 10, 4); !errors.Is(err, ErrUnaligned) {
		t.Errorf("Expected ErrUnaligned, got %v", err)
	}
	if _, err := AlignedCol(Align(9), 10, 4); !errors.Is(err, ErrUnaligned) {
		t.Errorf("Expected ErrUnaligned for unknown mode, got %v", err)
	}
	if AlignCenter.String() != "center" || Align(9).String() != "align(9)" {
		t.Errorf("Unexpected names %s %s", AlignCenter, Align(9))
	}
}

func TestPutStrAligned(t *testing.T) {
	tests := []struct {
		name     string
		align    Align
		text     string
		startCol int
	}{
		{"Left", AlignLeft, "ab", 0},
		{"Center", AlignCenter, "ab", 4},
		{"Right", AlignRight, "ab", 8},
		{"Right wide glyph", AlignRight, "a世", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl := newPile(t)
			p := mustPlane(t, pl, Options{Rows: 2, Cols: 10})

			if _, err := p.PutStrAligned(1, tt.align, tt.text); err != nil {
				t.Fatalf("PutStrAligned failed: %v", err)
			}
			if c, _ := p.CellAt(1, tt.startCol); c.Glyph() != 'a' {
				t.Errorf("Expected text at column %d, got %q", tt.startCol, c.Glyph())
			}
			if cur, _ := p.Cursor(); cur.Col != 10 && tt.align == AlignRight {
				t.Errorf("Expected right-aligned text to end at the edge, cursor %s", cur)
			}
		})
	}

	pl := newPile(t)
	p := mustPlane(t, pl, Options{Rows: 1, Cols: 4})
	if _, err := p.PutStrAligned(2, AlignLeft, "x"); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds for row outside, got %v", err)
	}
	if _, err := p.PutStrAligned(0, AlignUnaligned, "x"); !errors.Is(err, ErrUnaligned) {
		t.Errorf("Expected ErrUnaligned, got %v", err)
	}
}
