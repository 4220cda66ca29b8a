//go:build !linux

package terminal

// resetTerminalMode is a no-op where termios ioctl names differ
func resetTerminalMode() {}
