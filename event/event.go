// Package event maps raw input records into structured input events.
//
// A Raw record carries a single ID that is either a Unicode codepoint or a
// synthesized Key, modifier bits, an input type and optional coordinates where
// -1 means undefined. Map turns it into an immutable Event.
package event

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/stackterm/plane"
)

// Undefined marks a coordinate the input source did not report
const Undefined = -1

// Modifier flags
type Modifier uint8

const (
	ModNone     Modifier = 0
	ModShift    Modifier = 1 << 0
	ModAlt      Modifier = 1 << 1
	ModCtrl     Modifier = 1 << 2
	ModSuper    Modifier = 1 << 3
	ModHyper    Modifier = 1 << 4
	ModMeta     Modifier = 1 << 5
	ModCapsLock Modifier = 1 << 6
	ModNumLock  Modifier = 1 << 7
)

var modifierNames = []struct {
	m    Modifier
	name string
}{
	{ModShift, "shift"},
	{ModAlt, "alt"},
	{ModCtrl, "ctrl"},
	{ModSuper, "super"},
	{ModHyper, "hyper"},
	{ModMeta, "meta"},
	{ModCapsLock, "caps_lock"},
	{ModNumLock, "num_lock"},
}

// Has returns true if all bits of other are set
func (m Modifier) Has(other Modifier) bool {
	return m&other == other
}

// String joins the set modifier names with '+', "none" when empty
func (m Modifier) String() string {
	if m == ModNone {
		return "none"
	}
	var parts []string
	for _, n := range modifierNames {
		if m&n.m != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "+")
}

// InputType distinguishes press, repeat and release
type InputType uint8

const (
	TypeUnknown InputType = iota
	TypePress
	TypeRepeat
	TypeRelease
)

func (t InputType) String() string {
	switch t {
	case TypePress:
		return "press"
	case TypeRepeat:
		return "repeat"
	case TypeRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Kind tags what a Received holds
type Kind uint8

const (
	KindNone Kind = iota
	KindKey
	KindChar
)

// Received is nothing, a Key, or a character
type Received struct {
	Kind Kind
	Key  Key
	Char rune
}

// NoInput is the empty Received
var NoInput = Received{}

// ReceivedKey wraps a key
func ReceivedKey(k Key) Received {
	return Received{Kind: KindKey, Key: k}
}

// ReceivedChar wraps a character
func ReceivedChar(r rune) Received {
	return Received{Kind: KindChar, Char: r}
}

func (r Received) String() string {
	switch r.Kind {
	case KindKey:
		return fmt.Sprintf("Key(%s)", r.Key)
	case KindChar:
		return fmt.Sprintf("Char(%q)", r.Char)
	default:
		return "NoInput"
	}
}

// Raw is one record from an input source
// ID is 0 for no input, a synthesized Key code, or a codepoint.
type Raw struct {
	ID        uint32
	Modifiers Modifier
	EvType    InputType
	Y, X      int // Cell, Undefined if not reported
	Ypx, Xpx  int // Pixel offset inside the cell, Undefined if not reported
}

// RawKey returns a key record without coordinates
func RawKey(k Key, mod Modifier) Raw {
	return Raw{ID: uint32(k), Modifiers: mod, EvType: TypePress, Y: Undefined, X: Undefined, Ypx: Undefined, Xpx: Undefined}
}

// RawChar returns a character record without coordinates
func RawChar(r rune, mod Modifier) Raw {
	return Raw{ID: uint32(r), Modifiers: mod, EvType: TypePress, Y: Undefined, X: Undefined, Ypx: Undefined, Xpx: Undefined}
}

// Event is a structured input event
// Cell and PixelOffset are only set for mouse keys whose source reported them.
type Event struct {
	Received    Received
	Modifiers   Modifier
	Type        InputType
	Cell        *plane.Offset
	PixelOffset *plane.Offset
}

// Map converts a raw record into an Event
func Map(raw Raw) Event {
	ev := Event{
		Modifiers: raw.Modifiers,
		Type:      raw.EvType,
	}

	switch {
	case raw.ID == 0:
		ev.Received = NoInput
	case IsKeyCode(raw.ID):
		ev.Received = ReceivedKey(Key(raw.ID))
	default:
		ev.Received = ReceivedChar(rune(raw.ID))
	}

	// Coordinates only mean something for mouse input
	if ev.Received.Kind == KindKey && ev.Received.Key.IsMouse() {
		if raw.Y != Undefined {
			ev.Cell = &plane.Offset{Row: raw.Y, Col: raw.X}
		}
		if raw.Ypx != Undefined {
			ev.PixelOffset = &plane.Offset{Row: raw.Ypx, Col: raw.Xpx}
		}
	}
	return ev
}

// IsReceived returns true if anything was received
func (e Event) IsReceived() bool {
	return e.Received.Kind != KindNone
}

// HasKey returns true if a Key was received
func (e Event) HasKey() bool {
	return e.Received.Kind == KindKey
}

// IsKey returns true if k was received
func (e Event) IsKey(k Key) bool {
	return e.Received.Kind == KindKey && e.Received.Key == k
}

// HasChar returns true if a character was received
func (e Event) HasChar() bool {
	return e.Received.Kind == KindChar
}

// IsChar returns true if r was received
func (e Event) IsChar(r rune) bool {
	return e.Received.Kind == KindChar && e.Received.Char == r
}

// IsMouse returns true for mouse keys
func (e Event) IsMouse() bool {
	return e.HasKey() && e.Received.Key.IsMouse()
}

func optOffset(o *plane.Offset) string {
	if o == nil {
		return "None"
	}
	return o.String()
}

// String formats as "received mod type cell offset"
func (e Event) String() string {
	return fmt.Sprintf("%s %s %s %s %s",
		e.Received, e.Modifiers, e.Type, optOffset(e.Cell), optOffset(e.PixelOffset))
}

// GoString is the labeled debug form used by %#v
func (e Event) GoString() string {
	return fmt.Sprintf("Event {received:%s mod:%s type:%s cell:%s offset:%s }",
		e.Received, e.Modifiers, e.Type, optOffset(e.Cell), optOffset(e.PixelOffset))
}
