package event

import "fmt"

// Key is a synthesized key code
// Keys live above the Unicode range so a raw ID is either a codepoint or a Key.
type Key uint32

// keyBase is the first synthesized key code
const keyBase Key = 0x110000

// Key constants
const (
	KeyInvalid Key = keyBase + iota
	KeyResize
	KeyUp
	KeyRight
	KeyDown
	KeyLeft
	KeyInsert
	KeyDelete
	KeyBackspace
	KeyPageDown
	KeyPageUp
	KeyHome
	KeyEnd
)

// Function keys
const (
	KeyF0 Key = keyBase + 20 + iota
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// Editing and lock keys
const (
	KeyEnter      Key = keyBase + 121
	KeyClear      Key = keyBase + 122
	KeyBegin      Key = keyBase + 128
	KeyCapsLock   Key = keyBase + 150
	KeyScrollLock Key = keyBase + 151
	KeyNumLock    Key = keyBase + 152
	KeyPrint      Key = keyBase + 153
	KeyPause      Key = keyBase + 154
	KeyMenu       Key = keyBase + 155
)

// Mouse keys
const (
	KeyMotion Key = keyBase + 1000 + iota
	KeyButton1
	KeyButton2
	KeyButton3
	KeyButton4
	KeyButton5
	KeyButton6
	KeyButton7
	KeyButton8
	KeyButton9
	KeyButton10
	KeyButton11
)

// Scroll wheel aliases
const (
	KeyScrollUp   = KeyButton4
	KeyScrollDown = KeyButton5
)

// Pseudo keys
const (
	KeySignal Key = keyBase + 1400
	KeyEOF    Key = keyBase + 1500
)

// keyMax is the last synthesized key code
const keyMax = KeyEOF

// IsKeyCode reports whether id falls in the synthesized key range
func IsKeyCode(id uint32) bool {
	return Key(id) >= keyBase && Key(id) <= keyMax
}

// IsMouse returns true for mouse motion, buttons and scroll
func (k Key) IsMouse() bool {
	return k >= KeyMotion && k <= KeyButton11
}

// IsFunction returns true for F0 through F12
func (k Key) IsFunction() bool {
	return k >= KeyF0 && k <= KeyF12
}

// keyToName maps Key constants to canonical config string names
var keyToName = map[Key]string{
	KeyInvalid:   "invalid",
	KeyResize:    "resize",
	KeyUp:        "up",
	KeyRight:     "right",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyInsert:    "insert",
	KeyDelete:    "delete",
	KeyBackspace: "backspace",
	KeyPageDown:  "page_down",
	KeyPageUp:    "page_up",
	KeyHome:      "home",
	KeyEnd:       "end",

	KeyEnter:      "enter",
	KeyClear:      "clear",
	KeyBegin:      "begin",
	KeyCapsLock:   "caps_lock",
	KeyScrollLock: "scroll_lock",
	KeyNumLock:    "num_lock",
	KeyPrint:      "print",
	KeyPause:      "pause",
	KeyMenu:       "menu",

	KeyMotion:   "motion",
	KeyButton1:  "button1",
	KeyButton2:  "button2",
	KeyButton3:  "button3",
	KeyButton4:  "scroll_up",
	KeyButton5:  "scroll_down",
	KeyButton6:  "button6",
	KeyButton7:  "button7",
	KeyButton8:  "button8",
	KeyButton9:  "button9",
	KeyButton10: "button10",
	KeyButton11: "button11",

	KeySignal: "signal",
	KeyEOF:    "eof",
}

// nameToKey is the reverse lookup, built from keyToName
var nameToKey map[string]Key

func init() {
	for k := KeyF0; k <= KeyF12; k++ {
		keyToName[k] = fmt.Sprintf("f%d", k-KeyF0)
	}
	nameToKey = make(map[string]Key, len(keyToName))
	for k, v := range keyToName {
		nameToKey[v] = k
	}
	// Aliases
	nameToKey["button4"] = KeyButton4
	nameToKey["button5"] = KeyButton5
	nameToKey["return"] = KeyEnter
}

// KeyByName resolves a canonical name to a Key constant
// Returns KeyInvalid and false if name is unknown
func KeyByName(name string) (Key, bool) {
	k, ok := nameToKey[name]
	if !ok {
		return KeyInvalid, false
	}
	return k, true
}

// String returns the canonical name, or the hex code for unnamed keys
func (k Key) String() string {
	if name, ok := keyToName[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%#x)", uint32(k))
}
