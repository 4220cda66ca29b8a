package render

import (
	"bufio"
)

// Pre-allocated ANSI sequence fragments (avoid allocations during rasterize)
var (
	csi       = []byte("\x1b[")
	csiSGR0   = []byte("\x1b[0m")
	csiFwd1   = []byte("\x1b[C")
	csiFg256  = []byte("\x1b[38;5;") // followed by N;m
	csiBg256  = []byte("\x1b[48;5;") // followed by N;m
	csiFgRGB  = []byte("\x1b[38;2;") // followed by R;G;B;m
	csiBgRGB  = []byte("\x1b[48;2;") // followed by R;G;B;m
	csiFgDflt = []byte("\x1b[39m")
	csiBgDflt = []byte("\x1b[49m")
)

// writeInt writes an integer without allocation
// Optimized for terminal values (0-255 common, 0-999 typical max)
func writeInt(w *bufio.Writer, n int) {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		w.WriteByte(byte(n) + '0')
		return
	}
	if n < 100 {
		w.WriteByte(byte(n/10) + '0')
		w.WriteByte(byte(n%10) + '0')
		return
	}
	if n < 1000 {
		w.WriteByte(byte(n/100) + '0')
		w.WriteByte(byte(n/10%10) + '0')
		w.WriteByte(byte(n%10) + '0')
		return
	}
	var buf [20]byte
	i := len(buf) - 1
	for n > 0 {
		buf[i] = byte(n%10) + '0'
		n /= 10
		i--
	}
	w.Write(buf[i+1:])
}

// writeCursorPos writes cursor positioning sequence (0-indexed input)
func writeCursorPos(w *bufio.Writer, row, col int) {
	w.Write(csi)
	writeInt(w, row+1)
	w.WriteByte(';')
	writeInt(w, col+1)
	w.WriteByte('H')
}

// writeCursorForward writes cursor forward N positions
func writeCursorForward(w *bufio.Writer, n int) {
	if n <= 0 {
		return
	}
	if n == 1 {
		w.Write(csiFwd1)
		return
	}
	w.Write(csi)
	writeInt(w, n)
	w.WriteByte('C')
}
