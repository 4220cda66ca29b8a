package plane

import (
	"errors"
	"fmt"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// ErrUnaligned is returned when an offset is requested for AlignUnaligned
var ErrUnaligned = errors.New("no alignment")

// Align is a horizontal placement inside an available width
type Align uint8

const (
	AlignUnaligned Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

var alignNames = [...]string{
	AlignUnaligned: "unaligned",
	AlignLeft:      "left",
	AlignCenter:    "center",
	AlignRight:     "right",
}

func (a Align) String() string {
	if int(a) < len(alignNames) {
		return alignNames[a]
	}
	return fmt.Sprintf("align(%d)", uint8(a))
}

// AlignedCol returns the column at which cols columns start inside avail
// Content wider than avail starts at 0
func AlignedCol(a Align, avail, cols int) (int, error) {
	switch a {
	case AlignLeft:
		return 0, nil
	case AlignCenter, AlignRight:
		if cols > avail {
			return 0, nil
		}
		if a == AlignCenter {
			return (avail - cols) / 2, nil
		}
		return avail - cols, nil
	default:
		return 0, fmt.Errorf("aligned col %s: %w", a, ErrUnaligned)
	}
}

// PutStrAligned writes s on row, placed by a within the plane's width
// The cursor ends after the text; clipping behaves as in PutStr.
func (p *Plane) PutStrAligned(row int, a Align, s string) (int, error) {
	n, err := p.node()
	if err != nil {
		return 0, err
	}
	col, err := AlignedCol(a, n.cols, uniseg.StringWidth(norm.NFC.String(s)))
	if err != nil {
		return 0, err
	}
	if err := p.SetCursor(row, col); err != nil {
		return 0, err
	}
	return p.PutStr(s)
}
