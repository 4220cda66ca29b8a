// Package screen presents composed frames through tcell and translates tcell
// input into event.Raw records.
//
// It is the portable alternative to package terminal: tcell owns terminfo,
// raw mode and input parsing, while the pile and render stages are unchanged.
package screen

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/stackterm/blitter"
	"github.com/lixenwraith/stackterm/cell"
	"github.com/lixenwraith/stackterm/event"
	"github.com/lixenwraith/stackterm/render"
)

var (
	// ErrClosed is returned by Poll once the screen has been finalized
	ErrClosed = errors.New("screen closed")
	// ErrNoFrame is returned when presenting a nil frame
	ErrNoFrame = errors.New("no frame")
)

// Sample glyphs for capability queries
const (
	sampleUpperHalf = '▀'
	sampleLowerHalf = '▄'
	sampleQuadrant  = '▚'
	sampleSextant   = '🬀'
	sampleBraille   = '⣿'
)

// Screen drives a tcell.Screen with frames from render.Render
type Screen struct {
	s    tcell.Screen
	caps blitter.Capabilities

	// Buttons held at the previous mouse report, tcell reports releases as "no buttons"
	lastButtons tcell.ButtonMask
	mouse       bool
	warned      bool
}

// New opens the default tcell screen for the controlling terminal
func New() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open screen: %w", err)
	}
	return Wrap(s), nil
}

// Wrap drives an existing tcell.Screen, such as a simulation screen
func Wrap(s tcell.Screen) *Screen {
	return &Screen{s: s}
}

// Init initializes tcell and queries capabilities
func (s *Screen) Init() error {
	if err := s.s.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	s.s.SetStyle(tcell.StyleDefault)
	s.s.Clear()
	s.caps = s.query()
	return nil
}

// Fini restores the terminal
func (s *Screen) Fini() {
	s.s.Fini()
}

// Size returns the screen dimensions in cells
func (s *Screen) Size() (rows, cols int) {
	w, h := s.s.Size()
	return h, w
}

// Capabilities returns what tcell reported at Init
func (s *Screen) Capabilities() blitter.Capabilities {
	return s.caps
}

// SetCapabilities replaces the queried capabilities, e.g. with configured overrides
func (s *Screen) SetCapabilities(caps blitter.Capabilities) {
	s.caps = caps
}

// query maps tcell color depth and glyph support to capabilities
func (s *Screen) query() blitter.Capabilities {
	colors := s.s.Colors()
	caps := blitter.Capabilities{
		UTF8:        strings.EqualFold(s.s.CharacterSet(), "UTF-8"),
		Truecolor:   colors > 256,
		PaletteSize: min(colors, 256),
	}
	can := func(r rune) bool { return caps.UTF8 && s.s.CanDisplay(r, false) }
	caps.Halfblock = can(sampleUpperHalf) && can(sampleLowerHalf)
	caps.Quadrant = can(sampleQuadrant)
	caps.Sextant = can(sampleSextant)
	caps.Braille = can(sampleBraille)
	return caps
}

// SetMouse toggles mouse reporting
func (s *Screen) SetMouse(enabled bool) {
	if s.mouse == enabled {
		return
	}
	s.mouse = enabled
	if enabled {
		s.s.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	} else {
		s.s.DisableMouse()
	}
}

// Sync forces a full redraw on the next Show
func (s *Screen) Sync() {
	s.s.Sync()
}

// Present copies f into tcell's buffer and shows it
// Cells outside the current screen size are dropped.
func (s *Screen) Present(f *render.Frame) error {
	if f == nil {
		return ErrNoFrame
	}
	rows, cols := s.Size()
	if rows != f.Rows || cols != f.Cols {
		log.Printf("Screen presenting %dx%d frame on %dx%d screen", f.Rows, f.Cols, rows, cols)
	}

	downgraded := 0
	for r := 0; r < min(rows, f.Rows); r++ {
		for c := 0; c < min(cols, f.Cols); c++ {
			cl := f.Cells[r*f.Cols+c]
			if cl.IsBackstop() {
				// tcell fills the right half of wide glyphs itself
				continue
			}
			glyph, style, changed := s.translateCell(cl)
			if changed {
				downgraded++
			}
			s.s.SetContent(c, r, glyph, nil, style)
		}
	}

	if downgraded > 0 && !s.warned {
		s.warned = true
		log.Printf("Screen degraded %d blitter glyphs for capabilities %+v", downgraded, s.caps)
	}

	s.s.Show()
	return nil
}

// translateCell resolves glyph and style, reporting a blitter downgrade
func (s *Screen) translateCell(c cell.Cell) (rune, tcell.Style, bool) {
	glyph := c.Glyph()
	if glyph == 0 {
		glyph = ' '
	}
	fg, bg := c.Fg(), c.Bg()

	out, inverted := blitter.Downgrade(glyph, s.caps)
	changed := out != glyph
	if inverted {
		bg = fg
	}

	style := tcell.StyleDefault.
		Foreground(toColor(fg)).
		Background(toColor(bg))
	style = applyStyles(style, c.Styles())
	return out, style, changed
}

func toColor(ch cell.Channel) tcell.Color {
	switch {
	case ch.IsDefault():
		return tcell.ColorDefault
	case ch.IsPalette():
		return tcell.PaletteColor(int(ch.Index()))
	default:
		r, g, b := ch.RGB()
		return tcell.NewRGBColor(int32(r), int32(g), int32(b))
	}
}

func applyStyles(st tcell.Style, s cell.Style) tcell.Style {
	st = st.Bold(s.Has(cell.StyleBold)).
		Dim(s.Has(cell.StyleDim)).
		Italic(s.Has(cell.StyleItalic)).
		Blink(s.Has(cell.StyleBlink)).
		Reverse(s.Has(cell.StyleReverse)).
		StrikeThrough(s.Has(cell.StyleStruck))
	switch {
	case s.Has(cell.StyleUndercurl):
		st = st.Underline(tcell.UnderlineStyleCurly)
	case s.Has(cell.StyleUnderline):
		st = st.Underline(true)
	}
	return st
}

// Poll blocks until the next input record
// tcell events with no record equivalent are skipped.
func (s *Screen) Poll() (event.Raw, error) {
	for {
		ev := s.s.PollEvent()
		if ev == nil {
			return event.Raw{}, ErrClosed
		}
		if raw, ok := s.translate(ev); ok {
			return raw, nil
		}
	}
}

// translate maps a tcell event to an input record
func (s *Screen) translate(ev tcell.Event) (event.Raw, bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return translateKey(ev), true
	case *tcell.EventMouse:
		return s.translateMouse(ev)
	case *tcell.EventResize:
		s.s.Sync()
		return event.RawKey(event.KeyResize, event.ModNone), true
	}
	return event.Raw{}, false
}
