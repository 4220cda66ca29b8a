package terminal

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/lixenwraith/stackterm/event"
)

// decoder turns raw input bytes into records, holding back incomplete sequences
type decoder struct {
	// Persistent buffer for stream assembly, partial UTF-8 and escape sequences survive across reads
	buf []byte
}

// feed appends data and emits every complete record
func (d *decoder) feed(data []byte, emit func(event.Raw)) {
	d.buf = append(d.buf, data...)
	consumed := parseInput(d.buf, emit)

	// Compact buffer
	if consumed >= len(d.buf) {
		d.buf = d.buf[:0]
	} else if consumed > 0 {
		copy(d.buf, d.buf[consumed:])
		d.buf = d.buf[:len(d.buf)-consumed]
	}
}

// flush emits a pending standalone ESC after the input went quiet
func (d *decoder) flush(emit func(event.Raw)) {
	if len(d.buf) == 1 && d.buf[0] == 0x1b {
		emit(event.RawChar(0x1b, event.ModNone))
		d.buf = d.buf[:0]
	}
}

// parseInput parses raw bytes into records and returns bytes consumed (stop on incomplete sequence)
func parseInput(data []byte, emit func(event.Raw)) int {
	i := 0
	n := len(data)

	for i < n {
		b := data[i]

		// Fast path: printable ASCII
		if b >= 0x20 && b < 0x7f {
			emit(event.RawChar(rune(b), event.ModNone))
			i++
			continue
		}

		// Escape sequence
		if b == 0x1b {
			// Need at least 2 bytes to determine sequence type
			if i+1 >= n {
				return i
			}

			consumed, raw := parseEscape(data[i:])
			if consumed == 0 {
				return i
			}
			// Unknown sequences are swallowed
			if raw.ID != 0 {
				emit(raw)
			}
			i += consumed
			continue
		}

		if b < 0x20 {
			emit(parseControl(b))
			i++
			continue
		}

		// DEL
		if b == 0x7f {
			emit(event.RawKey(event.KeyBackspace, event.ModNone))
			i++
			continue
		}

		// UTF-8 multibyte
		if !utf8.FullRune(data[i:]) {
			return i
		}
		r, size := utf8.DecodeRune(data[i:])
		if r != utf8.RuneError || size > 1 {
			emit(event.RawChar(r, event.ModNone))
		}
		i += size
	}
	return i
}

// parseEscape attempts to parse an escape sequence, returns 0 on incomplete
func parseEscape(data []byte) (int, event.Raw) {
	// ESC ESC -> Alt+Escape
	if data[1] == 0x1b {
		return 2, event.RawChar(0x1b, event.ModAlt)
	}

	switch data[1] {
	case '[':
		return parseCSI(data)
	case 'O':
		return parseSS3(data)
	}

	// Alt+Control character (ESC + 0x00-0x1F)
	if data[1] < 0x20 {
		raw := parseControl(data[1])
		raw.Modifiers |= event.ModAlt
		return 2, raw
	}

	// Alt+printable
	if data[1] < 0x7f {
		return 2, event.RawChar(rune(data[1]), event.ModAlt)
	}

	// Alt+UTF-8
	if !utf8.FullRune(data[1:]) {
		return 0, event.Raw{}
	}
	r, size := utf8.DecodeRune(data[1:])
	return 1 + size, event.RawChar(r, event.ModAlt)
}

// parseCSI parses CSI sequence without allocation
func parseCSI(data []byte) (int, event.Raw) {
	if len(data) < 3 {
		return 0, event.Raw{}
	}

	// SGR mouse: ESC [ < Btn ; X ; Y M/m
	if data[2] == '<' {
		return parseSGRMouse(data)
	}

	end := 2
	maxScan := min(len(data), 16)
	terminated := false

	for end < maxScan {
		b := data[end]
		end++
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			terminated = true
			break
		}
		if b < 0x20 || b > 0x7e {
			// Malformed, drop the introducer
			return 2, event.Raw{}
		}
	}

	if !terminated {
		if end >= 16 {
			// Overlong garbage
			return end, event.Raw{}
		}
		return 0, event.Raw{} // Incomplete
	}

	body := data[2:end]
	if len(body) == 1 && body[0] == 'Z' {
		return end, event.RawChar('\t', event.ModShift)
	}
	if s, ok := lookupCSI(body); ok {
		return end, event.RawKey(s.key, s.mod)
	}

	// Unknown but valid CSI syntax - consume
	return end, event.Raw{}
}

// parseSS3 parses SS3 sequence without allocation, returns length even for unknown sequences
func parseSS3(data []byte) (int, event.Raw) {
	if len(data) < 3 {
		return 0, event.Raw{}
	}
	if s, ok := lookupSS3(data[2:3]); ok {
		return 3, event.RawKey(s.key, s.mod)
	}
	if r, ok := ss3Keypad[data[2]]; ok {
		return 3, event.RawChar(r, event.ModNone)
	}
	// Unknown SS3 - consume to prevent garbage
	return 3, event.Raw{}
}

// parseControl maps control characters to records
func parseControl(b byte) event.Raw {
	switch b {
	case 0x00: // Ctrl+Space or Ctrl+@
		return event.RawChar(' ', event.ModCtrl)
	case 0x08: // Ctrl+H or Backspace
		return event.RawKey(event.KeyBackspace, event.ModNone)
	case 0x09:
		return event.RawChar('\t', event.ModNone)
	case 0x0a, 0x0d: // LF, CR
		return event.RawKey(event.KeyEnter, event.ModNone)
	case 0x1b:
		return event.RawChar(0x1b, event.ModNone)
	case 0x1c:
		return event.RawChar('\\', event.ModCtrl)
	case 0x1d:
		return event.RawChar(']', event.ModCtrl)
	case 0x1e:
		return event.RawChar('^', event.ModCtrl)
	case 0x1f:
		return event.RawChar('_', event.ModCtrl)
	}
	// Ctrl+letter (Ctrl+A = 0x01, Ctrl+Z = 0x1A)
	return event.RawChar(rune('a'+b-1), event.ModCtrl)
}

// parseSGRMouse parses mouse SGR sequences
func parseSGRMouse(data []byte) (int, event.Raw) {
	// Format: ESC [ < Btn ; X ; Y M/m
	// Minimum: ESC [ < 0 ; 1 ; 1 M = 9 bytes
	end := 3
	for end < len(data) && end < 32 {
		if data[end] == 'M' || data[end] == 'm' {
			break
		}
		end++
	}
	if end >= len(data) {
		if end >= 32 {
			return end, event.Raw{}
		}
		return 0, event.Raw{}
	}
	if data[end] != 'M' && data[end] != 'm' {
		return end, event.Raw{}
	}

	btn, x, y, ok := parseSGRParams(data[3:end])
	if !ok {
		return end + 1, event.Raw{}
	}

	raw := event.Raw{
		EvType: event.TypePress,
		Y:      y - 1, // Convert to 0-indexed
		X:      x - 1,
		Ypx:    event.Undefined,
		Xpx:    event.Undefined,
	}
	if data[end] == 'm' {
		raw.EvType = event.TypeRelease
	}

	// Bits 0-1: button (0=left, 1=middle, 2=right, 3=none)
	// Bit 5 (32): motion, bit 6 (64): scroll, bit 7 (128): extra buttons
	buttonID := btn & 0x03
	switch {
	case btn&128 != 0:
		raw.ID = uint32(event.KeyButton8) + uint32(buttonID)
	case btn&64 != 0:
		raw.ID = uint32(event.KeyButton4) + uint32(buttonID)
	case btn&32 != 0 && buttonID == 3:
		raw.ID = uint32(event.KeyMotion)
	case buttonID == 3:
		// Legacy release without button identity
		raw.ID = uint32(event.KeyButton1)
		raw.EvType = event.TypeRelease
	default:
		raw.ID = uint32(event.KeyButton1) + uint32(buttonID)
		if btn&32 != 0 {
			// Drag: motion with a held button
			raw.EvType = event.TypeRepeat
		}
	}

	if btn&4 != 0 {
		raw.Modifiers |= event.ModShift
	}
	if btn&8 != 0 {
		raw.Modifiers |= event.ModAlt
	}
	if btn&16 != 0 {
		raw.Modifiers |= event.ModCtrl
	}

	return end + 1, raw
}

// parseSGRParams extracts btn, x, y from "Btn;X;Y" format
func parseSGRParams(data []byte) (btn, x, y int, ok bool) {
	state := 0 // 0=btn, 1=x, 2=y
	val := 0
	digits := 0

	for _, b := range data {
		if b == ';' {
			if digits == 0 {
				return 0, 0, 0, false
			}
			switch state {
			case 0:
				btn = val
			case 1:
				x = val
			}
			state++
			val = 0
			digits = 0
			if state > 2 {
				return 0, 0, 0, false
			}
		} else if b >= '0' && b <= '9' {
			val = val*10 + int(b-'0')
			digits++
			if val > 9999 { // Sanity limit
				return 0, 0, 0, false
			}
		} else {
			return 0, 0, 0, false
		}
	}

	if state != 2 || digits == 0 {
		return 0, 0, 0, false
	}
	y = val
	return btn, x, y, true
}

// inputReader runs the decoder over backend reads in its own goroutine
type inputReader struct {
	backend Backend
	rawCh   chan event.Raw
	errCh   chan error
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool

	dec decoder
}

// stopTimeout bounds how long stop waits for a stuck read
const stopTimeout = 100 * time.Millisecond

func newInputReader(backend Backend) *inputReader {
	return &inputReader{
		backend: backend,
		rawCh:   make(chan event.Raw, 256),
		errCh:   make(chan error, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		dec:     decoder{buf: make([]byte, 0, 256)},
	}
}

// start begins reading input in a goroutine
func (r *inputReader) start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	go r.readLoop()
}

// stop signals the reader to stop
func (r *inputReader) stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	// Wait with timeout - don't block forever if read is stuck
	select {
	case <-r.doneCh:
	case <-time.After(stopTimeout):
	}
}

// send delivers a record unless the channel is full
func (r *inputReader) send(raw event.Raw) {
	select {
	case r.rawCh <- raw:
	default:
		// Channel full, drop record
	}
}

// readLoop is the main input reading goroutine
func (r *inputReader) readLoop() {
	defer close(r.doneCh)

	// Panic recovery for raw input reader
	defer func() {
		if rec := recover(); rec != nil {
			EmergencyReset(os.Stdout)
			// Use \r\n for clean output
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mINPUT READER CRASHED: %v\x1b[0m\r\n", rec)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Exit(1)
		}
	}()

	for {
		data, err := r.backend.Read(r.stopCh)
		if err != nil {
			if err != io.EOF {
				err = fmt.Errorf("read input: %w", err)
			}
			r.errCh <- err
			return
		}

		if len(data) == 0 {
			select {
			case <-r.stopCh:
				return
			default:
			}
			// Timeout: a lone ESC is the escape key
			r.dec.flush(r.send)
			continue
		}

		r.dec.feed(data, r.send)
	}
}
