package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/stackterm/blitter"
	"github.com/lixenwraith/stackterm/cell"
	"github.com/lixenwraith/stackterm/event"
	"github.com/lixenwraith/stackterm/plane"
	"github.com/lixenwraith/stackterm/render"
	"github.com/lixenwraith/stackterm/visual"
)

// action is what the loop must do after an event
type action uint8

const (
	actNone action = iota
	actQuit
	actMouse
)

// Blitters cycled by the b key, Pixel needs a bitmap driver
var blitterCycle = []blitter.Blitter{
	blitter.Default,
	blitter.Space,
	blitter.Half,
	blitter.Quadrant,
	blitter.Sextant,
	blitter.Braille,
	blitter.Four,
	blitter.Eight,
}

const (
	helpText    = " stackterm  b:blitter t:translucent z:order m:mouse arrows/click:move q:quit"
	clockFormat = " 15:04:05"
)

var (
	titleColors  = cell.NewChannels(cell.RGB(230, 230, 230), cell.RGB(40, 50, 70))
	statusColors = cell.NewChannels(cell.RGB(200, 200, 200), cell.RGB(20, 20, 30))
	boxFg        = cell.RGB(255, 255, 255)
	boxBg        = cell.RGB(30, 40, 140)
	panelBg      = cell.RGB(0, 150, 150)
)

// scene owns the demo pile; every plane access goes through guard
type scene struct {
	pile  *plane.Pile
	guard *plane.Guard

	caps blitter.Capabilities
	opts blitter.Options
	mode int // index into blitterCycle
	used blitter.Blitter

	backdrop *plane.Plane
	panel    *plane.Plane
	box      *plane.Plane
	badge    *plane.Plane
	title    *plane.Plane
	clock    *plane.Plane
	status   *plane.Plane

	translucent bool
	boxOnTop    bool
	mouse       bool
	last        string
	problem     string
	stats       render.Stats
	frames      int
}

// newScene builds the demo pile for a rows×cols screen
func newScene(rows, cols int, caps blitter.Capabilities, req blitter.Blitter, opts blitter.Options) (*scene, error) {
	pile, err := plane.NewPile(plane.Options{Rows: rows, Cols: cols, Name: "stackdemo"})
	if err != nil {
		return nil, fmt.Errorf("new scene: %w", err)
	}
	s := &scene{
		pile:        pile,
		guard:       plane.NewGuard(pile),
		caps:        caps,
		opts:        opts,
		translucent: true,
		boxOnTop:    true,
		last:        "none",
	}
	for i, b := range blitterCycle {
		if b == req {
			s.mode = i
		}
	}
	err = s.guard.Do(func(p *plane.Pile) error {
		return s.build(rows, cols)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// build drops every plane and lays the scene out again; caller holds the guard
func (s *scene) build(rows, cols int) error {
	s.pile.DropAll()
	if err := s.pile.Resize(rows, cols); err != nil {
		return fmt.Errorf("resize pile: %w", err)
	}

	var err error
	if s.backdrop, err = s.pile.NewPlane(plane.Options{Rows: rows, Cols: cols, Name: "backdrop"}); err != nil {
		return err
	}
	s.blitBackdrop()

	pr, pc := min(5, rows), min(18, cols)
	if s.panel, err = s.pile.NewPlane(plane.Options{Rows: pr, Cols: pc, Row: rows / 2, Col: cols / 2, Name: "panel"}); err != nil {
		return err
	}
	if err := s.panel.SetBase(0, cell.StyleNone, cell.NewChannels(cell.DefaultChannel.WithAlpha(cell.AlphaTransparent), panelBg.WithAlpha(cell.AlphaBlend))); err != nil {
		return err
	}

	br, bc := min(7, rows), min(26, cols)
	if s.box, err = s.pile.NewPlane(plane.Options{Rows: br, Cols: bc, Row: rows / 4, Col: cols / 4, Name: "box"}); err != nil {
		return err
	}
	if s.badge, err = s.box.NewChild(1, min(10, bc), br-1, 1); err != nil {
		return err
	}
	if err := s.drawBadge(); err != nil {
		return err
	}
	if err := s.styleBox(); err != nil {
		return err
	}
	if err := s.order(); err != nil {
		return err
	}

	if s.title, err = s.pile.NewPlane(plane.Options{Rows: 1, Cols: cols, Name: "title"}); err != nil {
		return err
	}
	if err := errors.Join(
		s.title.SetBase(' ', cell.StyleNone, titleColors),
		s.title.SetChannels(titleColors),
		s.title.SetStyles(cell.StyleBold),
	); err != nil {
		return err
	}
	putLine(s.title, 0, plane.AlignLeft, helpText)

	cw := min(len(clockFormat), cols)
	cc, err := plane.AlignedCol(plane.AlignRight, cols, cw)
	if err != nil {
		return err
	}
	if s.clock, err = s.title.NewChild(1, cw, 0, cc); err != nil {
		return err
	}
	if err := s.clock.SetBase(' ', cell.StyleNone, titleColors); err != nil {
		return err
	}
	s.drawClock(time.Now())

	if s.status, err = s.pile.NewPlane(plane.Options{Rows: 1, Cols: cols, Row: rows - 1, Name: "status"}); err != nil {
		return err
	}
	if err := s.status.SetBase(' ', cell.StyleNone, statusColors); err != nil {
		return err
	}
	s.drawStatus()
	return nil
}

// putLine writes text on row placed by align, dropping what does not fit
// A row outside the plane writes nothing
func putLine(p *plane.Plane, row int, align plane.Align, text string) {
	if _, err := p.PutStrAligned(row, align, text); err != nil && !errors.Is(err, plane.ErrOutOfBounds) {
		log.Printf("Scene write to %s failed: %v", p, err)
	}
}

// report logs a failed plane call and shows it on the status line
func (s *scene) report(what string, err error) {
	if err == nil {
		return
	}
	log.Printf("Scene %s failed: %v", what, err)
	s.problem = fmt.Sprintf("%s: %v", what, err)
}

// backdropImage renders a hue sweep over a brightness ramp
func backdropImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		v := 0.25 + 0.75*float64(height-y)/float64(height)
		for x := 0; x < width; x++ {
			h := 360 * float64(x) / float64(width)
			r, g, b := colorful.Hsv(h, 0.75, v).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return img
}

// blitBackdrop redraws the backdrop with the current blitter; caller holds the guard
func (s *scene) blitBackdrop() {
	rows, cols, err := s.backdrop.Size()
	if err != nil {
		s.problem = err.Error()
		return
	}
	if err := s.backdrop.Erase(); err != nil {
		s.report("erase backdrop", err)
		return
	}

	// Enough pixels for the densest geometry
	v, err := visual.FromImage(backdropImage(cols*2, rows*4))
	if err != nil {
		s.problem = err.Error()
		return
	}
	req := blitterCycle[s.mode]
	used, err := v.Blit(s.backdrop, s.caps, visual.Options{
		Blitter:   req,
		NoDegrade: s.opts.NoDegrade,
		Scale:     visual.ScaleStretch,
	})
	if err != nil {
		s.problem = err.Error()
		log.Printf("Backdrop blit with %s failed: %v", req, err)
		return
	}
	s.used = used
	s.problem = ""
}

// styleBox applies the translucency mode; caller holds the guard
func (s *scene) styleBox() error {
	if err := s.box.Erase(); err != nil {
		return err
	}
	fg, bg := boxFg, boxBg
	glyph := ' '
	label := " opaque box"
	if s.translucent {
		// Glyph 0 lets the backdrop glyph through the blended colors
		fg = fg.WithAlpha(cell.AlphaBlend)
		bg = bg.WithAlpha(cell.AlphaBlend)
		glyph = 0
		label = " translucent box"
	}
	channels := cell.NewChannels(fg, bg)
	if err := s.box.SetBase(glyph, cell.StyleNone, channels); err != nil {
		return err
	}
	if err := s.box.SetChannels(cell.NewChannels(boxFg, bg)); err != nil {
		return err
	}
	putLine(s.box, 1, plane.AlignLeft, label)
	putLine(s.box, 3, plane.AlignCenter, "合成 planes")
	return nil
}

func (s *scene) drawBadge() error {
	badge := cell.NewChannels(cell.Palette(0), cell.Palette(11))
	if err := errors.Join(
		s.badge.SetBase(' ', cell.StyleNone, badge),
		s.badge.SetChannels(badge),
		s.badge.SetStyles(cell.StyleItalic),
	); err != nil {
		return err
	}
	putLine(s.badge, 0, plane.AlignCenter, "child")
	return nil
}

// order places the box above or below the panel; caller holds the guard
func (s *scene) order() error {
	if s.boxOnTop {
		return s.box.MoveAbove(s.panel)
	}
	return s.box.MoveBelow(s.panel)
}

// drawClock writes the time into the title corner; caller holds the guard
func (s *scene) drawClock(now time.Time) {
	if err := errors.Join(s.clock.Erase(), s.clock.SetChannels(titleColors)); err != nil {
		s.report("draw clock", err)
		return
	}
	putLine(s.clock, 0, plane.AlignRight, now.Format(clockFormat))
}

// drawStatus summarises the last event and frame; caller holds the guard
func (s *scene) drawStatus() {
	if err := errors.Join(s.status.Erase(), s.status.SetChannels(statusColors)); err != nil {
		log.Printf("Scene draw status failed: %v", err)
		return
	}
	text := fmt.Sprintf(" %s | %s->%s | frame %d %dB | %s",
		s.last, blitterCycle[s.mode], s.used, s.frames, s.stats.Bytes, s.boxAlpha())
	if s.problem != "" {
		if err := s.status.SetChannels(statusColors.WithFg(cell.RGB(255, 90, 90))); err != nil {
			log.Printf("Scene draw status failed: %v", err)
		}
		text = " " + s.problem
	}
	putLine(s.status, 0, plane.AlignLeft, text)
}

func (s *scene) boxAlpha() string {
	if s.translucent {
		return cell.AlphaBlend.String()
	}
	return cell.AlphaOpaque.String()
}

// tick updates the clock from another goroutine
func (s *scene) tick(now time.Time) {
	err := s.guard.Do(func(*plane.Pile) error {
		s.drawClock(now)
		return nil
	})
	if err != nil {
		log.Printf("Scene tick failed: %v", err)
	}
}

// resize rebuilds the scene for new screen dimensions
func (s *scene) resize(rows, cols int) error {
	return s.guard.Do(func(*plane.Pile) error {
		return s.build(rows, cols)
	})
}

// handle applies one input event
func (s *scene) handle(ev event.Event) (action, error) {
	if !ev.IsReceived() {
		return actNone, nil
	}
	switch {
	case ev.IsChar('q'), ev.IsChar(0x1b), ev.IsChar('c') && ev.Modifiers.Has(event.ModCtrl):
		return actQuit, nil
	case ev.IsChar('m'):
		s.mouse = !s.mouse
		return actMouse, s.update(ev, nil)
	}

	return actNone, s.update(ev, func() error {
		switch {
		case ev.IsChar('b'):
			s.mode = (s.mode + 1) % len(blitterCycle)
			s.blitBackdrop()
		case ev.IsChar('t'):
			s.translucent = !s.translucent
			return s.styleBox()
		case ev.IsChar('z'):
			s.boxOnTop = !s.boxOnTop
			return s.order()
		case ev.IsKey(event.KeyUp):
			return s.box.MoveRel(-1, 0)
		case ev.IsKey(event.KeyDown):
			return s.box.MoveRel(1, 0)
		case ev.IsKey(event.KeyLeft):
			return s.box.MoveRel(0, -1)
		case ev.IsKey(event.KeyRight):
			return s.box.MoveRel(0, 1)
		case ev.IsKey(event.KeyButton1) && ev.Type != event.TypeRelease && ev.Cell != nil:
			return s.box.MoveTo(ev.Cell.Row, ev.Cell.Col)
		}
		return nil
	})
}

// update runs fn under the guard and refreshes the status line
func (s *scene) update(ev event.Event, fn func() error) error {
	return s.guard.Do(func(*plane.Pile) error {
		s.last = ev.String()
		if fn != nil {
			if err := fn(); err != nil {
				return err
			}
		}
		s.drawStatus()
		return nil
	})
}

// render composes the current pile
func (s *scene) render() (*render.Frame, error) {
	var f *render.Frame
	err := s.guard.Do(func(p *plane.Pile) error {
		var err error
		f, err = render.Render(p)
		return err
	})
	return f, err
}

// presented records output statistics for the status line
func (s *scene) presented(st render.Stats) {
	err := s.guard.Do(func(*plane.Pile) error {
		s.frames++
		s.stats = st
		s.drawStatus()
		return nil
	})
	if err != nil {
		log.Printf("Scene status update failed: %v", err)
	}
}
