package terminal

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/muesli/termenv"

	"github.com/lixenwraith/stackterm/blitter"
)

// Env is a snapshot of environment variables used for capability detection
// It satisfies termenv.Environ so detection never reads the process environment directly
type Env map[string]string

// OSEnv snapshots the process environment
func OSEnv() Env {
	env := make(Env)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Environ returns KEY=VALUE pairs in key order
func (e Env) Environ() []string {
	out := make([]string, 0, len(e))
	for k, v := range e {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Getenv returns the value of key or ""
func (e Env) Getenv(key string) string {
	return e[key]
}

// Emulators known to speak truecolor regardless of TERM
var truecolorMarkers = []string{
	"KITTY_WINDOW_ID",
	"KONSOLE_VERSION",
	"ITERM_SESSION_ID",
	"ALACRITTY_WINDOW_ID",
	"ALACRITTY_LOG",
	"WEZTERM_PANE",
}

// DetectCapabilities derives what the terminal can draw from env
// Color depth comes from termenv, glyph support from locale and TERM
func DetectCapabilities(env Env) blitter.Capabilities {
	var caps blitter.Capabilities

	out := termenv.NewOutput(io.Discard, termenv.WithEnvironment(env), termenv.WithTTY(true))
	profile := out.EnvColorProfile()

	// Emulator markers never override NO_COLOR
	if !out.EnvNoColor() && profile != termenv.TrueColor && hasTruecolorMarker(env) {
		profile = termenv.TrueColor
	}

	switch profile {
	case termenv.TrueColor:
		caps.Truecolor = true
		caps.PaletteSize = 256
	case termenv.ANSI256:
		caps.PaletteSize = 256
	case termenv.ANSI:
		caps.PaletteSize = 16
	}

	term := env.Getenv("TERM")
	caps.UTF8 = isUTF8Locale(env)
	caps.Halfblock = caps.UTF8
	// The linux console font carries block elements only
	fancy := caps.UTF8 && term != "linux"
	caps.Quadrant = fancy
	caps.Sextant = fancy
	caps.Braille = fancy
	caps.Pixel = env.Getenv("KITTY_WINDOW_ID") != "" || term == "xterm-kitty" ||
		env.Getenv("WEZTERM_PANE") != "" || term == "wezterm" || term == "xterm-ghostty"

	return caps
}

func hasTruecolorMarker(env Env) bool {
	for _, k := range truecolorMarkers {
		if env.Getenv(k) != "" {
			return true
		}
	}
	term := env.Getenv("TERM")
	return strings.Contains(term, "truecolor") ||
		strings.Contains(term, "24bit") ||
		strings.Contains(term, "direct")
}

// isUTF8Locale checks the first set locale variable in POSIX precedence order
func isUTF8Locale(env Env) bool {
	for _, k := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v := env.Getenv(k)
		if v == "" {
			continue
		}
		v = strings.ToLower(v)
		return strings.Contains(v, "utf-8") || strings.Contains(v, "utf8")
	}
	return false
}
