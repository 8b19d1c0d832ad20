package util

import (
	"os"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Terminal color sequences
const (
	ColorReset = "\033[0m"
	ColorCyan  = "\033[36m"
	ColorBold  = "\033[1m"
)

// GetDisplayWidth calculates the terminal display width of a string
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadRight left-aligns text in a cell of the given display width
func PadRight(text string, width int) string {
	return runewidth.FillRight(text, width)
}

// PadLeft right-aligns text in a cell of the given display width
func PadLeft(text string, width int) string {
	return runewidth.FillLeft(text, width)
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Bold wraps text in bold cyan when enabled
func Bold(text string, enabled bool) string {
	if !enabled {
		return text
	}
	return ColorBold + ColorCyan + text + ColorReset
}
