package ui

import (
	"os"

	"golang.org/x/term"
)

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Palette applies colors only when enabled, so piped output stays plain
type Palette struct {
	Enabled bool
}

// For returns a palette enabled when f is a terminal and NO_COLOR is unset
func For(f *os.File) Palette {
	_, noColor := os.LookupEnv("NO_COLOR")
	return Palette{Enabled: !noColor && IsTerminal(f)}
}

// Paint wraps s in the given style codes
func (p Palette) Paint(style, s string) string {
	if !p.Enabled || style == "" {
		return s
	}
	return style + s + ColorReset
}

func (p Palette) Bold(s string) string    { return p.Paint(ColorBold, s) }
func (p Palette) Success(s string) string { return p.Paint(ColorGreen, s) }
func (p Palette) Info(s string) string    { return p.Paint(ColorDim+ColorYellow, s) }
func (p Palette) Error(s string) string   { return p.Paint(ColorRed, s) }
