package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Terminal control sequences
const (
	ColorReset  = "\033[0m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"

	EnterAltScreen = "\033[?1049h"
	ExitAltScreen  = "\033[?1049l"
	ClearScreen    = "\033[2J"
	ClearLine      = "\033[2K"
	ClearToEnd     = "\033[0J"
	MoveCursorHome = "\033[H"
	HideCursor     = "\033[?25l"
	ShowCursor     = "\033[?25h"
)

// GetDisplayWidth calculates the terminal display width of a string
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// Truncate shortens text to width display cells, marking the cut with "…"
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}

// PadRight pads text with spaces up to width display cells
func PadRight(text string, width int) string {
	return runewidth.FillRight(text, width)
}

// FormatHeaderTitle formats a pane title (Cyan + Bold)
func FormatHeaderTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorCyan, title, ColorReset)
}

// FormatError formats an inline error message (Red)
func FormatError(msg string) string {
	return fmt.Sprintf("%s%s%s", ColorRed, msg, ColorReset)
}

// FormatOK formats a healthy value (Green)
func FormatOK(msg string) string {
	return fmt.Sprintf("%s%s%s", ColorGreen, msg, ColorReset)
}

// FormatHint formats secondary text (Dim)
func FormatHint(msg string) string {
	return fmt.Sprintf("%s%s%s", ColorDim, msg, ColorReset)
}

// Separator returns a horizontal rule of the given width
func Separator(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("─", width)
}
