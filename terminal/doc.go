// Package terminal drives an ANSI terminal directly: raw mode, the alternate
// screen, input decoding into event.Raw records and capability detection.
//
// Features:
//   - Raw stdin decoding of CSI, SS3, SGR mouse and UTF-8 input
//   - SIGWINCH resize reported as a resize key
//   - Capability detection from the environment via termenv
//   - Clean terminal restoration on exit/panic
//
// Terminal implements render.Output, so a render.Rasterizer can write to it.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
