package terminal

import (
	"testing"

	"github.com/lixenwraith/stackterm/event"
)

func mouseRaw(k event.Key, typ event.InputType, mod event.Modifier, y, x int) event.Raw {
	return event.Raw{
		ID:        uint32(k),
		Modifiers: mod,
		EvType:    typ,
		Y:         y,
		X:         x,
		Ypx:       event.Undefined,
		Xpx:       event.Undefined,
	}
}

func decodeAll(feeds ...string) []event.Raw {
	var got []event.Raw
	emit := func(r event.Raw) { got = append(got, r) }
	var d decoder
	for _, f := range feeds {
		d.feed([]byte(f), emit)
	}
	return got
}

func TestDecodeKeyboard(t *testing.T) {
	key := event.RawKey
	char := event.RawChar

	tests := []struct {
		name  string
		input string
		want  []event.Raw
	}{
		{"Printable", "ab", []event.Raw{char('a', event.ModNone), char('b', event.ModNone)}},
		{"Arrow", "\x1b[A", []event.Raw{key(event.KeyUp, event.ModNone)}},
		{"Ctrl arrow", "\x1b[1;5C", []event.Raw{key(event.KeyRight, event.ModCtrl)}},
		{"Shift alt arrow", "\x1b[1;4D", []event.Raw{key(event.KeyLeft, event.ModShift|event.ModAlt)}},
		{"Home", "\x1b[H", []event.Raw{key(event.KeyHome, event.ModNone)}},
		{"Tilde delete", "\x1b[3~", []event.Raw{key(event.KeyDelete, event.ModNone)}},
		{"Alt delete", "\x1b[3;3~", []event.Raw{key(event.KeyDelete, event.ModAlt)}},
		{"Function key", "\x1b[15~", []event.Raw{key(event.KeyF5, event.ModNone)}},
		{"Shift F1", "\x1b[1;2P", []event.Raw{key(event.KeyF1, event.ModShift)}},
		{"SS3 F1", "\x1bOP", []event.Raw{key(event.KeyF1, event.ModNone)}},
		{"SS3 keypad enter", "\x1bOM", []event.Raw{key(event.KeyEnter, event.ModNone)}},
		{"SS3 keypad digit", "\x1bOq", []event.Raw{char('1', event.ModNone)}},
		{"Shift tab", "\x1b[Z", []event.Raw{char('\t', event.ModShift)}},
		{"Tab", "\t", []event.Raw{char('\t', event.ModNone)}},
		{"Enter", "\r", []event.Raw{key(event.KeyEnter, event.ModNone)}},
		{"Backspace", "\x7f", []event.Raw{key(event.KeyBackspace, event.ModNone)}},
		{"Ctrl letter", "\x01\x1a", []event.Raw{char('a', event.ModCtrl), char('z', event.ModCtrl)}},
		{"Ctrl space", "\x00", []event.Raw{char(' ', event.ModCtrl)}},
		{"Alt letter", "\x1bx", []event.Raw{char('x', event.ModAlt)}},
		{"Alt escape", "\x1b\x1b", []event.Raw{char(0x1b, event.ModAlt)}},
		{"Alt ctrl", "\x1b\x02", []event.Raw{char('b', event.ModCtrl|event.ModAlt)}},
		{"UTF-8", "é世", []event.Raw{char('é', event.ModNone), char('世', event.ModNone)}},
		{"Alt UTF-8", "\x1bж", []event.Raw{char('ж', event.ModAlt)}},
		{"Invalid UTF-8 skipped", "\xffa", []event.Raw{char('a', event.ModNone)}},
		{"Unknown CSI swallowed", "\x1b[99xq", []event.Raw{char('q', event.ModNone)}},
		{"Unknown SS3 swallowed", "\x1bOzq", []event.Raw{char('q', event.ModNone)}},
		{"Malformed CSI", "\x1b[\x01", []event.Raw{char('a', event.ModCtrl)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeAll(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d records, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Record %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestDecodeMouse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  event.Raw
	}{
		{"Left press", "\x1b[<0;10;5M", mouseRaw(event.KeyButton1, event.TypePress, event.ModNone, 4, 9)},
		{"Left release", "\x1b[<0;10;5m", mouseRaw(event.KeyButton1, event.TypeRelease, event.ModNone, 4, 9)},
		{"Right press", "\x1b[<2;1;1M", mouseRaw(event.KeyButton3, event.TypePress, event.ModNone, 0, 0)},
		{"Scroll up", "\x1b[<64;1;1M", mouseRaw(event.KeyScrollUp, event.TypePress, event.ModNone, 0, 0)},
		{"Scroll down", "\x1b[<65;7;3M", mouseRaw(event.KeyScrollDown, event.TypePress, event.ModNone, 2, 6)},
		{"Extra button", "\x1b[<128;1;1M", mouseRaw(event.KeyButton8, event.TypePress, event.ModNone, 0, 0)},
		{"Motion", "\x1b[<35;3;2M", mouseRaw(event.KeyMotion, event.TypePress, event.ModNone, 1, 2)},
		{"Drag", "\x1b[<32;3;2M", mouseRaw(event.KeyButton1, event.TypeRepeat, event.ModNone, 1, 2)},
		{"Ctrl click", "\x1b[<16;1;1M", mouseRaw(event.KeyButton1, event.TypePress, event.ModCtrl, 0, 0)},
		{"Shift alt click", "\x1b[<12;1;1M", mouseRaw(event.KeyButton1, event.TypePress, event.ModShift|event.ModAlt, 0, 0)},
		{"Legacy release", "\x1b[<3;4;4M", mouseRaw(event.KeyButton1, event.TypeRelease, event.ModNone, 3, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeAll(tt.input)
			if len(got) != 1 {
				t.Fatalf("Expected 1 record, got %d: %v", len(got), got)
			}
			if got[0] != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got[0])
			}
		})
	}

	if got := decodeAll("\x1b[<0;x;1Mq"); len(got) != 1 || got[0].ID != 'q' {
		t.Errorf("Expected malformed mouse report to be dropped, got %v", got)
	}
}

func TestDecodeSplitInput(t *testing.T) {
	tests := []struct {
		name  string
		feeds []string
		want  event.Raw
	}{
		{"CSI across reads", []string{"\x1b[", "1;5", "A"}, event.RawKey(event.KeyUp, event.ModCtrl)},
		{"UTF-8 across reads", []string{"\xe4\xb8", "\x96"}, event.RawChar('世', event.ModNone)},
		{"Escape then CSI", []string{"\x1b", "[B"}, event.RawKey(event.KeyDown, event.ModNone)},
		{"Mouse across reads", []string{"\x1b[<0;1", "0;5M"}, mouseRaw(event.KeyButton1, event.TypePress, event.ModNone, 4, 9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeAll(tt.feeds...)
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("Expected [%+v], got %v", tt.want, got)
			}
		})
	}
}

func TestDecodeLoneEscape(t *testing.T) {
	var got []event.Raw
	emit := func(r event.Raw) { got = append(got, r) }
	var d decoder

	d.feed([]byte{0x1b}, emit)
	if len(got) != 0 {
		t.Fatalf("Expected escape to be held back, got %v", got)
	}
	d.flush(emit)
	if len(got) != 1 || got[0] != event.RawChar(0x1b, event.ModNone) {
		t.Fatalf("Expected escape after flush, got %v", got)
	}

	// Flush leaves partial sequences alone
	got = nil
	d.feed([]byte("\x1b["), emit)
	d.flush(emit)
	if len(got) != 0 {
		t.Errorf("Expected partial CSI to be held, got %v", got)
	}
	d.feed([]byte("C"), emit)
	if len(got) != 1 || got[0] != event.RawKey(event.KeyRight, event.ModNone) {
		t.Errorf("Expected right arrow, got %v", got)
	}
}

func TestXtermModifier(t *testing.T) {
	tests := []struct {
		param int
		want  event.Modifier
	}{
		{1, event.ModNone},
		{2, event.ModShift},
		{3, event.ModAlt},
		{5, event.ModCtrl},
		{8, event.ModShift | event.ModAlt | event.ModCtrl},
		{9, event.ModMeta},
	}
	for _, tt := range tests {
		if got := xtermModifier(tt.param); got != tt.want {
			t.Errorf("Param %d: expected %s, got %s", tt.param, tt.want, got)
		}
	}
}
