package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/presentation/layout"
	"github.com/penwyp/go-team-monitor/internal/util"
)

type displayMode int

const (
	modeNormal displayMode = iota
	modeHelp
	modeLoading
)

// TerminalDisplay draws dashboard frames onto a terminal
type TerminalDisplay struct {
	out   io.Writer
	sizer func() *layout.Sizer

	inAlternateScreen bool
	lastLayoutStyle   int
	currentMode       displayMode
	isFirstRender     bool
	previousScreen    []string
}

// Option customizes a TerminalDisplay
type Option func(*TerminalDisplay)

// WithOutput writes frames to w instead of stdout
func WithOutput(w io.Writer) Option {
	return func(td *TerminalDisplay) { td.out = w }
}

// WithSizer fixes the drawable area
func WithSizer(fn func() *layout.Sizer) Option {
	return func(td *TerminalDisplay) { td.sizer = fn }
}

func NewTerminalDisplay(opts ...Option) *TerminalDisplay {
	td := &TerminalDisplay{
		out:           os.Stdout,
		sizer:         layout.TerminalSizer,
		isFirstRender: true,
	}
	for _, opt := range opts {
		opt(td)
	}
	return td
}

// EnterAlternateScreen switches to the alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	if td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.EnterAltScreen, util.ClearScreen, util.MoveCursorHome, util.HideCursor)
	td.inAlternateScreen = true
	td.isFirstRender = true
}

// ExitAlternateScreen returns to the normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	if !td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.ClearScreen, util.MoveCursorHome, util.ShowCursor, util.ExitAltScreen)
	td.inAlternateScreen = false
}

// ClearScreen wipes the screen and forgets the previous frame
func (td *TerminalDisplay) ClearScreen() {
	fmt.Fprint(td.out, util.ClearScreen, util.MoveCursorHome)
	td.previousScreen = nil
}

func (td *TerminalDisplay) determineMode(state model.InteractionState) displayMode {
	if state.ShowHelp {
		return modeHelp
	}
	if state.IsLoading {
		return modeLoading
	}
	return modeNormal
}

// RenderWithState draws view according to the interaction state
func (td *TerminalDisplay) RenderWithState(view model.DashboardView, state model.InteractionState) {
	mode := td.determineMode(state)
	if td.isFirstRender || mode != td.currentMode || state.LayoutStyle != td.lastLayoutStyle {
		td.ClearScreen()
		td.isFirstRender = false
		td.currentMode = mode
		td.lastLayoutStyle = state.LayoutStyle
	}

	sizer := td.sizer()
	var lines []string
	switch mode {
	case modeHelp:
		lines = helpLines(sizer.ContentWidth())
	case modeLoading:
		lines = loadingLines(state.LoadingMessage, sizer)
	default:
		lines = layout.GetLayoutStrategy(state.LayoutStyle).Render(view, sizer)
		lines = append(lines, footerLine(state))
	}
	td.draw(lines)
}

// draw rewrites only the lines that changed since the previous frame
func (td *TerminalDisplay) draw(lines []string) {
	var b strings.Builder
	for i, line := range lines {
		if i < len(td.previousScreen) && td.previousScreen[i] == line {
			continue
		}
		fmt.Fprintf(&b, "\033[%d;1H%s%s", i+1, util.ClearLine, line)
	}
	if len(lines) < len(td.previousScreen) {
		fmt.Fprintf(&b, "\033[%d;1H%s", len(lines)+1, util.ClearToEnd)
	}
	if b.Len() > 0 {
		fmt.Fprint(td.out, b.String())
	}
	td.previousScreen = lines
}

func footerLine(state model.InteractionState) string {
	keys := "q quit  r refresh  e send event  p pause  t layout  h help"
	if state.IsPaused {
		return util.FormatError("PAUSED") + "  " + util.FormatHint(keys)
	}
	return util.FormatHint(keys)
}

func helpLines(width int) []string {
	rule := strings.Repeat("═", width)
	return []string{
		util.FormatHeaderTitle("team-monitor - Help"),
		rule,
		"",
		"Keyboard Shortcuts:",
		"",
		"  q/Esc/Ctrl+C - Quit",
		"  r            - Refresh status and reload history",
		"  e            - Submit the configured event",
		"  p            - Pause/unpause screen updates",
		"  t            - Change layout style (Full / Minimal)",
		"  h            - Show this help",
		"",
		"Layout Styles:",
		"  Full    - Status, last event result, activity history and raw stream",
		"  Minimal - Status and activity history only",
		"",
		rule,
		"Press 'h' to return...",
	}
}

func loadingLines(message string, sizer *layout.Sizer) []string {
	if message == "" {
		message = "Loading..."
	}
	lines := make([]string, sizer.Height/2)
	pad := (sizer.ContentWidth() - util.GetDisplayWidth(message)) / 2
	if pad < 0 {
		pad = 0
	}
	return append(lines, strings.Repeat(" ", pad)+util.FormatHint(message))
}
