package screen

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/stackterm/event"
)

// tcell named keys with a direct equivalent
var keyMap = map[tcell.Key]event.Key{
	tcell.KeyUp:         event.KeyUp,
	tcell.KeyDown:       event.KeyDown,
	tcell.KeyRight:      event.KeyRight,
	tcell.KeyLeft:       event.KeyLeft,
	tcell.KeyInsert:     event.KeyInsert,
	tcell.KeyDelete:     event.KeyDelete,
	tcell.KeyHome:       event.KeyHome,
	tcell.KeyEnd:        event.KeyEnd,
	tcell.KeyPgUp:       event.KeyPageUp,
	tcell.KeyPgDn:       event.KeyPageDown,
	tcell.KeyBackspace:  event.KeyBackspace,
	tcell.KeyBackspace2: event.KeyBackspace,
	tcell.KeyEnter:      event.KeyEnter,
	tcell.KeyClear:      event.KeyClear,
	tcell.KeyPrint:      event.KeyPrint,
	tcell.KeyPause:      event.KeyPause,
	tcell.KeyF1:         event.KeyF1,
	tcell.KeyF2:         event.KeyF2,
	tcell.KeyF3:         event.KeyF3,
	tcell.KeyF4:         event.KeyF4,
	tcell.KeyF5:         event.KeyF5,
	tcell.KeyF6:         event.KeyF6,
	tcell.KeyF7:         event.KeyF7,
	tcell.KeyF8:         event.KeyF8,
	tcell.KeyF9:         event.KeyF9,
	tcell.KeyF10:        event.KeyF10,
	tcell.KeyF11:        event.KeyF11,
	tcell.KeyF12:        event.KeyF12,
}

func translateMods(m tcell.ModMask) event.Modifier {
	var mod event.Modifier
	if m&tcell.ModShift != 0 {
		mod |= event.ModShift
	}
	if m&tcell.ModAlt != 0 {
		mod |= event.ModAlt
	}
	if m&tcell.ModCtrl != 0 {
		mod |= event.ModCtrl
	}
	if m&tcell.ModMeta != 0 {
		mod |= event.ModMeta
	}
	return mod
}

// translateKey follows the terminal decoder: tab, escape and control letters are characters
func translateKey(ev *tcell.EventKey) event.Raw {
	mod := translateMods(ev.Modifiers())
	k := ev.Key()

	switch k {
	case tcell.KeyRune:
		return event.RawChar(ev.Rune(), mod)
	case tcell.KeyTab:
		return event.RawChar('\t', mod)
	case tcell.KeyBacktab:
		return event.RawChar('\t', mod|event.ModShift)
	case tcell.KeyEscape:
		return event.RawChar(0x1b, mod)
	case tcell.KeyNUL:
		return event.RawChar(' ', mod|event.ModCtrl)
	}

	if key, ok := keyMap[k]; ok {
		return event.RawKey(key, mod)
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return event.RawChar(rune('a'+k-tcell.KeyCtrlA), mod|event.ModCtrl)
	}
	return event.RawKey(event.KeyInvalid, mod)
}

// Wheel and extra buttons in tcell bit order
var wheelMap = []struct {
	mask tcell.ButtonMask
	key  event.Key
}{
	{tcell.WheelUp, event.KeyScrollUp},
	{tcell.WheelDown, event.KeyScrollDown},
	{tcell.WheelLeft, event.KeyButton6},
	{tcell.WheelRight, event.KeyButton7},
}

// Buttons in press precedence; tcell numbers right as 2 and middle as 3
var buttonMap = []struct {
	mask tcell.ButtonMask
	key  event.Key
}{
	{tcell.Button1, event.KeyButton1},
	{tcell.Button3, event.KeyButton2},
	{tcell.Button2, event.KeyButton3},
	{tcell.Button4, event.KeyButton8},
	{tcell.Button5, event.KeyButton9},
	{tcell.Button6, event.KeyButton10},
	{tcell.Button7, event.KeyButton11},
}

// translateMouse derives press, drag and release from successive button masks
func (s *Screen) translateMouse(ev *tcell.EventMouse) (event.Raw, bool) {
	x, y := ev.Position()
	raw := event.Raw{
		Modifiers: translateMods(ev.Modifiers()),
		EvType:    event.TypePress,
		Y:         y,
		X:         x,
		Ypx:       event.Undefined,
		Xpx:       event.Undefined,
	}

	buttons := ev.Buttons()
	for _, w := range wheelMap {
		if buttons&w.mask != 0 {
			raw.ID = uint32(w.key)
			return raw, true
		}
	}

	prev := s.lastButtons
	s.lastButtons = buttons & tcell.ButtonMask(0xff)

	if s.lastButtons == 0 {
		// Release of whatever was held, otherwise plain motion
		for _, b := range buttonMap {
			if prev&b.mask != 0 {
				raw.ID = uint32(b.key)
				raw.EvType = event.TypeRelease
				return raw, true
			}
		}
		raw.ID = uint32(event.KeyMotion)
		return raw, true
	}

	for _, b := range buttonMap {
		if s.lastButtons&b.mask != 0 {
			raw.ID = uint32(b.key)
			if prev&b.mask != 0 {
				raw.EvType = event.TypeRepeat
			}
			return raw, true
		}
	}
	return event.Raw{}, false
}
