package interaction

import (
	"io"
	"os"
	"sync"
)

// KeyEvent represents a keyboard event
type KeyEvent struct {
	Key  rune
	Type KeyType
}

// KeyType represents the type of key pressed
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
)

// Control keys reported as KeyChar
const (
	KeyCtrlC rune = 3
	KeyEsc   rune = 27
)

// KeyboardReader delivers key presses from a terminal in raw mode
type KeyboardReader struct {
	in       io.Reader
	fd       int
	rawState *rawState
	input    chan KeyEvent
	stop     chan struct{}
	once     sync.Once
}

// NewKeyboardReader puts stdin into raw mode and starts reading it
func NewKeyboardReader() (*KeyboardReader, error) {
	kr := newKeyboardReader(os.Stdin)
	kr.fd = int(os.Stdin.Fd())
	if err := kr.enableRawMode(); err != nil {
		return nil, err
	}
	go kr.readInput()
	return kr, nil
}

// NewReaderInput reads key presses from r without touching terminal modes
func NewReaderInput(r io.Reader) *KeyboardReader {
	kr := newKeyboardReader(r)
	go kr.readInput()
	return kr
}

func newKeyboardReader(r io.Reader) *KeyboardReader {
	return &KeyboardReader{
		in:    r,
		fd:    -1,
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}
}

func (kr *KeyboardReader) readInput() {
	buf := make([]byte, 3)
	for {
		n, err := kr.in.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}

		event := kr.parseInput(buf[:n])
		if event == nil {
			continue
		}
		select {
		case kr.input <- *event:
		case <-kr.stop:
			return
		}
	}
}

// parseInput maps raw bytes to a key event; arrow keys and other escape
// sequences are ignored
func (kr *KeyboardReader) parseInput(buf []byte) *KeyEvent {
	if len(buf) == 0 {
		return nil
	}
	if buf[0] == byte(KeyCtrlC) {
		return &KeyEvent{Key: KeyCtrlC, Type: KeyChar}
	}
	if buf[0] == byte(KeyEsc) {
		if len(buf) == 1 {
			return &KeyEvent{Key: KeyEsc, Type: KeyEscape}
		}
		return nil
	}
	return &KeyEvent{Key: rune(buf[0]), Type: KeyChar}
}

// Events returns the keyboard event channel
func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Close stops delivering events and restores the terminal
func (kr *KeyboardReader) Close() error {
	var err error
	kr.once.Do(func() {
		close(kr.stop)
		err = kr.disableRawMode()
	})
	return err
}
