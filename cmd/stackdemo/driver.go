package main

import (
	"fmt"

	"github.com/lixenwraith/stackterm/blitter"
	"github.com/lixenwraith/stackterm/config"
	"github.com/lixenwraith/stackterm/event"
	"github.com/lixenwraith/stackterm/render"
	"github.com/lixenwraith/stackterm/screen"
	"github.com/lixenwraith/stackterm/terminal"
)

// driver is the output and input side the demo loop needs
type driver interface {
	Init() error
	Fini()
	Size() (rows, cols int)
	Capabilities() blitter.Capabilities
	Poll() (event.Raw, error)
	Present(f *render.Frame) (render.Stats, error)
	SetMouse(enabled bool) error
	// Resized discards any assumption about what the terminal shows
	Resized()
}

// newDriver builds the configured driver
func newDriver(cfg *config.Config) (driver, error) {
	switch cfg.Driver {
	case config.DriverTcell:
		s, err := screen.New()
		if err != nil {
			return nil, err
		}
		return &tcellDriver{s: s, cfg: cfg}, nil
	case config.DriverTerminal:
		caps := cfg.Apply(terminal.DetectCapabilities(terminal.OSEnv()))
		term := terminal.New(terminal.NewBackend(), caps)
		return &terminalDriver{
			term: term,
			rast: render.NewRasterizer(term, caps, cfg.RasterOptions()),
		}, nil
	default:
		return nil, fmt.Errorf("driver %q: %w", cfg.Driver, config.ErrInvalidConfig)
	}
}

// terminalDriver writes rasterized escape sequences through package terminal
type terminalDriver struct {
	term *terminal.Terminal
	rast *render.Rasterizer
}

func (d *terminalDriver) Init() error                        { return d.term.Init() }
func (d *terminalDriver) Fini()                              { d.term.Fini() }
func (d *terminalDriver) Size() (int, int)                   { return d.term.Size() }
func (d *terminalDriver) Capabilities() blitter.Capabilities { return d.term.Capabilities() }
func (d *terminalDriver) Poll() (event.Raw, error)           { return d.term.Poll() }
func (d *terminalDriver) SetMouse(enabled bool) error        { return d.term.SetMouse(enabled) }
func (d *terminalDriver) Resized()                           { d.rast.Invalidate() }

func (d *terminalDriver) Present(f *render.Frame) (render.Stats, error) {
	return d.rast.Rasterize(f)
}

// tcellDriver presents frames through tcell
type tcellDriver struct {
	s   *screen.Screen
	cfg *config.Config
}

func (d *tcellDriver) Init() error {
	if err := d.s.Init(); err != nil {
		return err
	}
	d.s.SetCapabilities(d.cfg.Apply(d.s.Capabilities()))
	return nil
}

func (d *tcellDriver) Fini()                              { d.s.Fini() }
func (d *tcellDriver) Size() (int, int)                   { return d.s.Size() }
func (d *tcellDriver) Capabilities() blitter.Capabilities { return d.s.Capabilities() }
func (d *tcellDriver) Poll() (event.Raw, error)           { return d.s.Poll() }
func (d *tcellDriver) Resized()                           {}

func (d *tcellDriver) SetMouse(enabled bool) error {
	d.s.SetMouse(enabled)
	return nil
}

func (d *tcellDriver) Present(f *render.Frame) (render.Stats, error) {
	if d.cfg.FullFrames {
		d.s.Sync()
	}
	return render.Stats{}, d.s.Present(f)
}
