package terminal

import (
	"strconv"

	"github.com/lixenwraith/stackterm/event"
)

// escapeSequence maps an escape sequence body to a key
// Key: sequence after ESC [ or ESC O (e.g., "A" for up arrow)
type escapeSequence struct {
	seq string
	key event.Key
	mod event.Modifier
}

// Unmodified CSI sequences (ESC [ ...)
var csiBase = []escapeSequence{
	// Arrow keys
	{"A", event.KeyUp, event.ModNone},
	{"B", event.KeyDown, event.ModNone},
	{"C", event.KeyRight, event.ModNone},
	{"D", event.KeyLeft, event.ModNone},

	// Navigation
	{"H", event.KeyHome, event.ModNone},
	{"F", event.KeyEnd, event.ModNone},
	{"E", event.KeyBegin, event.ModNone},
	{"1~", event.KeyHome, event.ModNone},
	{"4~", event.KeyEnd, event.ModNone},
	{"5~", event.KeyPageUp, event.ModNone},
	{"6~", event.KeyPageDown, event.ModNone},
	{"2~", event.KeyInsert, event.ModNone},
	{"3~", event.KeyDelete, event.ModNone},
	{"7~", event.KeyHome, event.ModNone},
	{"8~", event.KeyEnd, event.ModNone},

	// Function keys (xterm)
	{"11~", event.KeyF1, event.ModNone},
	{"12~", event.KeyF2, event.ModNone},
	{"13~", event.KeyF3, event.ModNone},
	{"14~", event.KeyF4, event.ModNone},
	{"15~", event.KeyF5, event.ModNone},
	{"17~", event.KeyF6, event.ModNone},
	{"18~", event.KeyF7, event.ModNone},
	{"19~", event.KeyF8, event.ModNone},
	{"20~", event.KeyF9, event.ModNone},
	{"21~", event.KeyF10, event.ModNone},
	{"23~", event.KeyF11, event.ModNone},
	{"24~", event.KeyF12, event.ModNone},

	// Function keys (linux console)
	{"[A", event.KeyF1, event.ModNone},
	{"[B", event.KeyF2, event.ModNone},
	{"[C", event.KeyF3, event.ModNone},
	{"[D", event.KeyF4, event.ModNone},
	{"[E", event.KeyF5, event.ModNone},
}

// Letter-terminated keys that take "1;<mod>" parameters
var csiLetterKeys = []escapeSequence{
	{"A", event.KeyUp, 0},
	{"B", event.KeyDown, 0},
	{"C", event.KeyRight, 0},
	{"D", event.KeyLeft, 0},
	{"H", event.KeyHome, 0},
	{"F", event.KeyEnd, 0},
	{"P", event.KeyF1, 0},
	{"Q", event.KeyF2, 0},
	{"R", event.KeyF3, 0},
	{"S", event.KeyF4, 0},
}

// Tilde keys that take "<n>;<mod>~" parameters
var csiTildeKeys = []escapeSequence{
	{"2", event.KeyInsert, 0},
	{"3", event.KeyDelete, 0},
	{"5", event.KeyPageUp, 0},
	{"6", event.KeyPageDown, 0},
	{"15", event.KeyF5, 0},
	{"17", event.KeyF6, 0},
	{"18", event.KeyF7, 0},
	{"19", event.KeyF8, 0},
	{"20", event.KeyF9, 0},
	{"21", event.KeyF10, 0},
	{"23", event.KeyF11, 0},
	{"24", event.KeyF12, 0},
}

// SS3 sequences (ESC O ...)
var ss3Sequences = []escapeSequence{
	{"A", event.KeyUp, event.ModNone},
	{"B", event.KeyDown, event.ModNone},
	{"C", event.KeyRight, event.ModNone},
	{"D", event.KeyLeft, event.ModNone},
	{"H", event.KeyHome, event.ModNone},
	{"F", event.KeyEnd, event.ModNone},
	{"P", event.KeyF1, event.ModNone},
	{"Q", event.KeyF2, event.ModNone},
	{"R", event.KeyF3, event.ModNone},
	{"S", event.KeyF4, event.ModNone},
	{"M", event.KeyEnter, event.ModNone}, // Keypad Enter
}

// Numeric keypad in application mode sends ESC O <letter> for a character
var ss3Keypad = map[byte]rune{
	'X': '=', 'j': '*', 'k': '+', 'l': ',', 'm': '-', 'n': '.', 'o': '/',
	'p': '0', 'q': '1', 'r': '2', 's': '3', 't': '4',
	'u': '5', 'v': '6', 'w': '7', 'x': '8', 'y': '9',
}

// xtermModifier decodes the xterm modifier parameter (1 + bitmask)
func xtermModifier(param int) event.Modifier {
	bits := param - 1
	var m event.Modifier
	if bits&1 != 0 {
		m |= event.ModShift
	}
	if bits&2 != 0 {
		m |= event.ModAlt
	}
	if bits&4 != 0 {
		m |= event.ModCtrl
	}
	if bits&8 != 0 {
		m |= event.ModMeta
	}
	return m
}

var csiMap = buildCSIMap()
var ss3Map = buildSequenceMap(ss3Sequences)

// buildCSIMap expands the modifier variants of every parameterised key
func buildCSIMap() map[string]escapeSequence {
	m := buildSequenceMap(csiBase)
	for param := 2; param <= 16; param++ {
		mod := xtermModifier(param)
		p := strconv.Itoa(param)
		for _, k := range csiLetterKeys {
			seq := "1;" + p + k.seq
			m[seq] = escapeSequence{seq, k.key, mod}
		}
		for _, k := range csiTildeKeys {
			seq := k.seq + ";" + p + "~"
			m[seq] = escapeSequence{seq, k.key, mod}
		}
	}
	return m
}

func buildSequenceMap(seqs []escapeSequence) map[string]escapeSequence {
	m := make(map[string]escapeSequence, len(seqs))
	for _, s := range seqs {
		m[s.seq] = s
	}
	return m
}

// lookupCSI performs zero-alloc map lookup via compiler optimization
// The string([]byte) conversion inline in map access does not allocate
func lookupCSI(seq []byte) (escapeSequence, bool) {
	s, ok := csiMap[string(seq)]
	return s, ok
}

// lookupSS3 performs zero-alloc map lookup
func lookupSS3(seq []byte) (escapeSequence, bool) {
	s, ok := ss3Map[string(seq)]
	return s, ok
}
