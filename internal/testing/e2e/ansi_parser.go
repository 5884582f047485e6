package e2e

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

// ansiEscape matches CSI sequences, including private modes like ?1049h
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripANSI removes all ANSI escape codes from a string
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Screen is a virtual terminal fed incrementally through Write. It
// understands the subset of sequences the dashboard emits: cursor
// positioning, line and screen erase, and the alternate screen switch.
// Colors are dropped.
type Screen struct {
	mu      sync.Mutex
	rows    int
	cols    int
	buffer  [][]rune
	cursorX int
	cursorY int
	pending []byte
}

// NewScreen creates a blank screen
func NewScreen(rows, cols int) *Screen {
	s := &Screen{rows: rows, cols: cols, buffer: make([][]rune, rows)}
	for i := range s.buffer {
		s.buffer[i] = blankRow(cols)
	}
	return s
}

func blankRow(cols int) []rune {
	row := make([]rune, cols)
	for j := range row {
		row[j] = ' '
	}
	return row
}

// Write feeds terminal output. Sequences split across writes are held
// until complete.
func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := append(s.pending, p...)
	s.pending = nil

	i := 0
	for i < len(data) {
		switch b := data[i]; {
		case b == 0x1b:
			n, complete := s.handleEscape(data[i:])
			if !complete {
				s.pending = append([]byte(nil), data[i:]...)
				return len(p), nil
			}
			i += n
		case b == '\r':
			s.cursorX = 0
			i++
		case b == '\n':
			s.lineFeed()
			i++
		case b == '\b':
			if s.cursorX > 0 {
				s.cursorX--
			}
			i++
		case b < 0x20:
			i++
		default:
			r, size := utf8.DecodeRune(data[i:])
			if r == utf8.RuneError && !utf8.FullRune(data[i:]) {
				s.pending = append([]byte(nil), data[i:]...)
				return len(p), nil
			}
			s.putChar(r)
			i += size
		}
	}
	return len(p), nil
}

// handleEscape applies one escape sequence at the start of data. It
// returns the bytes consumed and false when the sequence is incomplete.
func (s *Screen) handleEscape(data []byte) (int, bool) {
	if len(data) < 2 {
		return 0, false
	}
	if data[1] != '[' {
		return 2, true
	}

	private := false
	params := []int{}
	current, seen := 0, false
	for i := 2; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '?':
			private = true
		case c >= '0' && c <= '9':
			current = current*10 + int(c-'0')
			seen = true
		case c == ';':
			params = append(params, current)
			current, seen = 0, false
		default:
			if seen {
				params = append(params, current)
			}
			s.handleCommand(rune(c), params, private)
			return i + 1, true
		}
	}
	return 0, false
}

func param(params []int, i, fallback int) int {
	if i < len(params) && params[i] > 0 {
		return params[i]
	}
	return fallback
}

func (s *Screen) handleCommand(cmd rune, params []int, private bool) {
	if private {
		// alternate screen enter and leave both start from a blank screen
		if len(params) > 0 && params[0] == 1049 {
			s.clear()
			s.cursorX, s.cursorY = 0, 0
		}
		return
	}

	switch cmd {
	case 'H', 'f':
		s.cursorY = clamp(param(params, 0, 1)-1, 0, s.rows-1)
		s.cursorX = clamp(param(params, 1, 1)-1, 0, s.cols-1)
	case 'A':
		s.cursorY = clamp(s.cursorY-param(params, 0, 1), 0, s.rows-1)
	case 'B':
		s.cursorY = clamp(s.cursorY+param(params, 0, 1), 0, s.rows-1)
	case 'C':
		s.cursorX = clamp(s.cursorX+param(params, 0, 1), 0, s.cols-1)
	case 'D':
		s.cursorX = clamp(s.cursorX-param(params, 0, 1), 0, s.cols-1)
	case 'J':
		switch param(params, 0, 0) {
		case 0:
			s.eraseLine(s.cursorX, s.cols)
			for i := s.cursorY + 1; i < s.rows; i++ {
				s.buffer[i] = blankRow(s.cols)
			}
		case 1:
			for i := 0; i < s.cursorY; i++ {
				s.buffer[i] = blankRow(s.cols)
			}
			s.eraseLine(0, s.cursorX+1)
		case 2, 3:
			s.clear()
		}
	case 'K':
		switch param(params, 0, 0) {
		case 0:
			s.eraseLine(s.cursorX, s.cols)
		case 1:
			s.eraseLine(0, s.cursorX+1)
		case 2:
			s.eraseLine(0, s.cols)
		}
	}
}

func (s *Screen) putChar(ch rune) {
	if s.cursorX >= s.cols {
		s.cursorX = 0
		s.lineFeed()
	}
	s.buffer[s.cursorY][s.cursorX] = ch
	s.cursorX++
}

func (s *Screen) lineFeed() {
	s.cursorX = 0
	if s.cursorY < s.rows-1 {
		s.cursorY++
		return
	}
	copy(s.buffer, s.buffer[1:])
	s.buffer[s.rows-1] = blankRow(s.cols)
}

func (s *Screen) clear() {
	for i := range s.buffer {
		s.buffer[i] = blankRow(s.cols)
	}
}

func (s *Screen) eraseLine(from, to int) {
	row := s.buffer[s.cursorY]
	for j := clamp(from, 0, s.cols); j < clamp(to, 0, s.cols); j++ {
		row[j] = ' '
	}
}

// Render returns the screen with trailing blanks trimmed from each row
func (s *Screen) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, len(s.buffer))
	for i, row := range s.buffer {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	return strings.Join(lines, "\n")
}

// Line returns one row of the screen
func (s *Screen) Line(n int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n >= s.rows {
		return ""
	}
	return strings.TrimRight(string(s.buffer[n]), " ")
}

// ContainsText checks if the screen currently shows text
func (s *Screen) ContainsText(text string) bool {
	return strings.Contains(s.Render(), text)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
