package layout

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/penwyp/go-team-monitor/internal/util"
	"golang.org/x/term"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
	minWidth       = 40
	maxWidth       = 160
)

// Sizer holds the drawable terminal area
type Sizer struct {
	Width  int
	Height int
}

// NewSizer creates a sizer for a fixed area
func NewSizer(width, height int) *Sizer {
	return &Sizer{Width: width, Height: height}
}

// TerminalSizer measures stdout, falling back to 80x24 when it is not a
// terminal
func TerminalSizer() *Sizer {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		width, height = fallbackWidth, fallbackHeight
	}
	util.LogDebugf("terminal size %dx%d", width, height)
	return NewSizer(width, height)
}

// ContentWidth is the usable line width
func (s *Sizer) ContentWidth() int {
	w := s.Width - 2
	if w < minWidth {
		w = minWidth
	}
	if w > maxWidth {
		w = maxWidth
	}
	return w
}

// PadString pads s to a display width, handling wide runes correctly
func (s *Sizer) PadString(str string, width int, leftAlign bool) string {
	actual := runewidth.StringWidth(str)
	if actual >= width {
		return str
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return str + padding
	}
	return padding + str
}

// Split divides the rows left after fixed lines between panes by weight.
// Every pane gets at least one row; rounding leftovers go to the last pane.
func (s *Sizer) Split(fixed int, weights ...int) []int {
	out := make([]int, len(weights))
	if len(weights) == 0 {
		return out
	}

	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	avail := s.Height - fixed
	if total == 0 || avail < len(weights) {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	used := 0
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		out[i] = avail * w / total
		if out[i] < 1 {
			out[i] = 1
		}
		used += out[i]
	}
	if rest := avail - used; rest > 0 {
		out[len(out)-1] += rest
	}
	return out
}
