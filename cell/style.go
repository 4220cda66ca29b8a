package cell

import "strings"

// Style is a bitset of text attributes
type Style uint16

const (
	StyleNone      Style = 0
	StyleBold      Style = 1 << 0
	StyleDim       Style = 1 << 1
	StyleItalic    Style = 1 << 2
	StyleUnderline Style = 1 << 3
	StyleBlink     Style = 1 << 4
	StyleReverse   Style = 1 << 5
	StyleUndercurl Style = 1 << 6
	StyleStruck    Style = 1 << 7
)

// StyleMask covers every defined attribute
const StyleMask = StyleBold | StyleDim | StyleItalic | StyleUnderline | StyleBlink | StyleReverse | StyleUndercurl | StyleStruck

var styleNames = []struct {
	s    Style
	name string
}{
	{StyleBold, "bold"},
	{StyleDim, "dim"},
	{StyleItalic, "italic"},
	{StyleUnderline, "underline"},
	{StyleBlink, "blink"},
	{StyleReverse, "reverse"},
	{StyleUndercurl, "undercurl"},
	{StyleStruck, "struck"},
}

// Has returns true if every bit of other is set
func (s Style) Has(other Style) bool {
	return s&other == other
}

// Add returns the union
func (s Style) Add(other Style) Style {
	return s | other
}

// Remove returns the difference
func (s Style) Remove(other Style) Style {
	return s &^ other
}

// String lists attribute names joined by '|'
func (s Style) String() string {
	if s == StyleNone {
		return "none"
	}
	var parts []string
	for _, n := range styleNames {
		if s&n.s != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
