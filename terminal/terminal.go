package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lixenwraith/stackterm/blitter"
	"github.com/lixenwraith/stackterm/event"
)

// ErrClosed is returned by Write and Poll outside the Init/Fini window
var ErrClosed = errors.New("terminal not active")

// Terminal owns a Backend for the lifetime of a session: mode setup, raw output and
// decoded input. It implements render.Output.
type Terminal struct {
	backend Backend
	caps    blitter.Capabilities
	input   *inputReader

	mu          sync.Mutex
	initialized bool
	finalized   bool
	mouse       bool
	readErr     error
}

// New wraps backend; caps are reported unchanged by Capabilities
func New(backend Backend, caps blitter.Capabilities) *Terminal {
	return &Terminal{
		backend: backend,
		caps:    caps,
		input:   newInputReader(backend),
	}
}

// Init enters raw mode and the alternate screen, then starts the input goroutine
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}

	if err := t.backend.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}

	// Resize arrives as a synthesized key on the input stream
	t.backend.SetResizeHandler(func(rows, cols int) {
		t.input.send(event.RawKey(event.KeyResize, event.ModNone))
	})

	t.writeRaw(csiAltScreenEnter)
	t.writeRaw(csiCursorHide)
	// Writing the bottom-right cell must not scroll
	t.writeRaw(csiAutoWrapOff)
	t.writeRaw(csiClear)

	t.input.start()

	t.initialized = true
	return nil
}

// Fini restores terminal state. Safe to call multiple times
func (t *Terminal) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return
	}

	if t.mouse {
		t.writeRaw(csiMouseOff)
		t.mouse = false
	}

	t.input.stop()

	t.writeRaw(csiCursorShow)
	t.writeRaw(csiAltScreenExit)
	// Main buffer must get wrapping back after leaving the alt screen
	t.writeRaw(csiAutoWrapOn)
	t.writeRaw(csiSGR0)

	t.backend.Fini()

	t.finalized = true
}

// Size returns current terminal dimensions in cells
func (t *Terminal) Size() (rows, cols int) {
	return t.backend.Size()
}

// Capabilities returns what the terminal was detected to draw
func (t *Terminal) Capabilities() blitter.Capabilities {
	return t.caps
}

// Write sends a rasterized frame to the terminal
func (t *Terminal) Write(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return ErrClosed
	}
	return t.backend.Write(p)
}

// Events exposes decoded input records; closed input is reported through Poll
func (t *Terminal) Events() <-chan event.Raw {
	return t.input.rawCh
}

// Poll blocks until the next input record or a read failure
// Once input fails every later call returns the same error
func (t *Terminal) Poll() (event.Raw, error) {
	t.mu.Lock()
	active := t.initialized && !t.finalized
	readErr := t.readErr
	t.mu.Unlock()

	if !active {
		return event.Raw{}, ErrClosed
	}
	if readErr != nil {
		return event.Raw{}, readErr
	}

	// Pending input wins over a failure that arrived after it
	select {
	case raw := <-t.input.rawCh:
		return raw, nil
	default:
	}

	select {
	case raw := <-t.input.rawCh:
		return raw, nil
	case err := <-t.input.errCh:
		return event.Raw{}, t.fail(err)
	case <-t.input.doneCh:
		select {
		case err := <-t.input.errCh:
			return event.Raw{}, t.fail(err)
		default:
			return event.Raw{}, ErrClosed
		}
	}
}

func (t *Terminal) fail(err error) error {
	t.mu.Lock()
	t.readErr = err
	t.mu.Unlock()
	return err
}

// SetMouse toggles SGR mouse reporting with button motion
func (t *Terminal) SetMouse(enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return ErrClosed
	}
	if t.mouse == enabled {
		return nil
	}
	t.mouse = enabled
	if enabled {
		return t.backend.Write(csiMouseOn)
	}
	return t.backend.Write(csiMouseOff)
}

// writeRaw writes mode sequences; failures surface on the next frame write
func (t *Terminal) writeRaw(data []byte) {
	t.backend.Write(data)
}

// EmergencyReset attempts to restore terminal to sane state
// Call this from panic recovery if Fini() cannot be called normally
func EmergencyReset(w io.Writer) {
	w.Write(csiMouseOff)
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)
	w.Write(csiRIS)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios
	resetTerminalMode()
}
