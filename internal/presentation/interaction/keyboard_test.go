package interaction

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyboardReader_ParseInput(t *testing.T) {
	kr := newKeyboardReader(strings.NewReader(""))

	tests := []struct {
		name     string
		input    []byte
		expected *KeyEvent
	}{
		{name: "regular char", input: []byte{'q'}, expected: &KeyEvent{Key: 'q', Type: KeyChar}},
		{name: "ctrl+c", input: []byte{3}, expected: &KeyEvent{Key: KeyCtrlC, Type: KeyChar}},
		{name: "escape", input: []byte{27}, expected: &KeyEvent{Key: KeyEsc, Type: KeyEscape}},
		{name: "arrow key ignored", input: []byte{27, '[', 'A'}},
		{name: "empty", input: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, kr.parseInput(tt.input))
		})
	}
}

func TestReaderInput_DeliversEvents(t *testing.T) {
	kr := NewReaderInput(strings.NewReader("r"))
	defer kr.Close()

	select {
	case ev := <-kr.Events():
		assert.Equal(t, KeyEvent{Key: 'r', Type: KeyChar}, ev)
	case <-time.After(time.Second):
		t.Fatal("no key event")
	}

	require.NoError(t, kr.Close())
	require.NoError(t, kr.Close())
}
